package http

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>vmchat API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// chatHTML is a minimal chat page backed by POST /chat.
const chatHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>vmchat</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
        #log { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; height: 60vh; overflow-y: auto; }
        .msg { margin: .5rem 0; white-space: pre-wrap; }
        .user { color: #1d4ed8; }
        .assistant { color: #111827; }
        form { display: flex; gap: .5rem; margin-top: 1rem; }
        input { flex: 1; padding: .5rem; }
    </style>
</head>
<body>
<h1>vmchat</h1>
<div id="log"></div>
<form id="chat">
    <input id="message" autocomplete="off" placeholder="e.g. list all vms" autofocus />
    <button type="submit">Send</button>
</form>
<script>
    const log = document.getElementById('log');
    const field = document.getElementById('message');
    let sessionId = sessionStorage.getItem('vmchat-session') || undefined;

    function append(role, text) {
        const div = document.createElement('div');
        div.className = 'msg ' + role;
        div.textContent = (role === 'user' ? 'You: ' : 'Assistant: ') + text;
        log.appendChild(div);
        log.scrollTop = log.scrollHeight;
    }

    document.getElementById('chat').addEventListener('submit', async (ev) => {
        ev.preventDefault();
        const message = field.value.trim();
        if (!message) return;
        field.value = '';
        append('user', message);
        const body = { message };
        if (sessionId) body.session_id = sessionId;
        try {
            const res = await fetch('/chat', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(body),
            });
            const data = await res.json();
            if (!res.ok) {
                append('assistant', 'Error: ' + data.error);
                return;
            }
            if (data.session_id) {
                sessionId = data.session_id;
                sessionStorage.setItem('vmchat-session', sessionId);
            }
            append('assistant', data.reply);
        } catch (err) {
            append('assistant', 'Error: ' + err);
        }
    });
</script>
</body>
</html>
`
