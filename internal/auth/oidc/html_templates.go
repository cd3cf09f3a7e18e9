package oidc

// LoginSuccessHtml is returned for the accepted callback. The page is static; it does not
// reflect any query parameter back to the browser.
const LoginSuccessHtml = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Login complete - Spacetime</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #f5f5f7;
        }
        .container {
            text-align: center;
            background: white;
            padding: 2rem 2.5rem;
            border-radius: 12px;
            box-shadow: 0 10px 25px rgba(0,0,0,0.1);
            max-width: 420px;
        }
        h1 { color: #10b981; font-size: 1.5rem; margin: 0 0 0.75rem; }
        p { color: #4b5563; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Login complete</h1>
        <p>You can close this tab and return to the terminal.</p>
    </div>
</body>
</html>`

// LoginFailedHtml is returned when the provider redirected back with an OAuth error.
const LoginFailedHtml = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Login failed - Spacetime</title>
</head>
<body>
    <h1>Login failed</h1>
    <p>The provider did not grant access. See the terminal for details.</p>
</body>
</html>`
