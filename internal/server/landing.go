package server

// landingPage finishes the implicit OAuth flow. The token arrives in the URL
// fragment, which browsers never send to the server, so the page posts its
// own location back to /auth/callback.
const landingPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>mapshare</title></head>
<body>
<h2 id="status">Completing sign-in...</h2>
<script>
fetch('/auth/callback', {
  method: 'POST',
  headers: {'Content-Type': 'application/json'},
  body: JSON.stringify({url: window.location.href})
})
  .then(function (r) { return r.json(); })
  .then(function (b) {
    document.getElementById('status').textContent = b.error
      ? 'Sign-in failed: ' + b.error
      : 'Signed in to ' + b.handler + '. You can close this window.';
  });
</script>
</body>
</html>
`
