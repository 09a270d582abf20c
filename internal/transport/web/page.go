package web

// chatPage is the whole browser UI: transcript, question box, PDF upload.
// Rendering goes through textContent, so model output and file names are
// never interpreted as markup.
const chatPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>docqa</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
  h1 { font-size: 1.3rem; }
  #transcript { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; min-height: 300px; max-height: 60vh; overflow-y: auto; }
  .turn { margin-bottom: 1rem; }
  .q { font-weight: 600; }
  .a { white-space: pre-wrap; margin-top: .25rem; }
  .err { color: #b00020; margin-top: .25rem; }
  form, #askrow { display: flex; gap: .5rem; margin-top: 1rem; }
  #question { flex: 1; padding: .5rem; border: 1px solid #ccc; border-radius: 6px; }
  button { padding: .5rem 1rem; border: 1px solid #888; border-radius: 6px; background: #f5f5f5; cursor: pointer; }
  #banner { margin-top: .5rem; min-height: 1.2rem; font-size: .9rem; }
  #banner.ok { color: #1b5e20; }
  #banner.bad { color: #b00020; }
</style>
</head>
<body>
<h1>docqa &mdash; ask your documents</h1>
<div id="transcript"></div>
<div id="askrow">
  <input id="question" type="text" placeholder="Ask a question..." autocomplete="off">
  <button id="askbtn">Ask</button>
</div>
<form id="upload">
  <input id="pdf" type="file" accept="application/pdf">
  <button type="submit">Add PDF</button>
</form>
<div id="banner"></div>
<script>
const transcript = document.getElementById('transcript');
const questionEl = document.getElementById('question');
const askBtn = document.getElementById('askbtn');
const banner = document.getElementById('banner');

function addTurn(question) {
  const turn = document.createElement('div');
  turn.className = 'turn';
  const q = document.createElement('div');
  q.className = 'q';
  q.textContent = question;
  const a = document.createElement('div');
  a.className = 'a';
  turn.appendChild(q);
  turn.appendChild(a);
  transcript.appendChild(turn);
  transcript.scrollTop = transcript.scrollHeight;
  return a;
}

function setBanner(text, ok) {
  banner.textContent = text;
  banner.className = ok ? 'ok' : 'bad';
}

function ask() {
  const question = questionEl.value.trim();
  if (!question) return;
  questionEl.value = '';
  askBtn.disabled = true;

  const answerEl = addTurn(question);
  const source = new EventSource('/api/ask?q=' + encodeURIComponent(question));
  source.onmessage = (ev) => {
    const frame = JSON.parse(ev.data);
    if (frame.content) {
      answerEl.textContent += frame.content;
      transcript.scrollTop = transcript.scrollHeight;
    }
    if (frame.error) {
      answerEl.className = 'err';
      answerEl.textContent = frame.error;
    }
    if (frame.done) {
      source.close();
      askBtn.disabled = false;
    }
  };
  source.onerror = () => {
    source.close();
    askBtn.disabled = false;
    if (!answerEl.textContent) {
      answerEl.className = 'err';
      answerEl.textContent = 'connection lost';
    }
  };
}

askBtn.addEventListener('click', ask);
questionEl.addEventListener('keydown', (ev) => { if (ev.key === 'Enter') ask(); });

document.getElementById('upload').addEventListener('submit', async (ev) => {
  ev.preventDefault();
  const input = document.getElementById('pdf');
  if (!input.files.length) return;
  const data = new FormData();
  data.append('file', input.files[0]);
  setBanner('Uploading...', true);
  try {
    const resp = await fetch('/api/documents', { method: 'POST', body: data });
    const body = await resp.json();
    setBanner(body.message, resp.ok);
  } catch (err) {
    setBanner('upload failed', false);
  }
  input.value = '';
});

fetch('/api/history').then(r => r.json()).then(body => {
  for (const turn of body.turns) {
    addTurn(turn.question).textContent = turn.answer;
  }
}).catch(() => {});
</script>
</body>
</html>
`
