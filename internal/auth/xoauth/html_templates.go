package xoauth

import (
	"fmt"
	"html"
)

// LoginSuccessHTML is the page shown to the user after a successful OAuth
// callback. The tab can simply be closed; the CLI finishes the exchange.
const LoginSuccessHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Authorization Successful - x-bookmarks</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #f7f9fa;
        }
        .container {
            text-align: center;
            background: white;
            padding: 2.5rem;
            border-radius: 12px;
            box-shadow: 0 2px 12px rgba(0,0,0,0.08);
            max-width: 420px;
        }
        h2 { color: #0f1419; margin: 0 0 0.5rem; }
        p { color: #536471; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h2>&#10003; Authorization successful</h2>
        <p>Your bookmarks are now accessible. You can close this tab and return to the terminal.</p>
    </div>
</body>
</html>`

// errorHTML renders the page shown when the callback carried an error, such as
// the user denying consent. All vendor-supplied strings are escaped.
func errorHTML(code, description string) string {
	detail := code
	if description != "" {
		detail = fmt.Sprintf("%s: %s", code, description)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Authorization Failed - x-bookmarks</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            min-height: 100vh;
            margin: 0;
            background: #f7f9fa;
        }
        .container {
            text-align: center;
            background: white;
            padding: 2.5rem;
            border-radius: 12px;
            box-shadow: 0 2px 12px rgba(0,0,0,0.08);
            max-width: 420px;
        }
        h2 { color: #f4212e; margin: 0 0 0.5rem; }
        p { color: #536471; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h2>&#10007; Authorization failed</h2>
        <p>%s</p>
        <p>You can close this tab and re-run the login step.</p>
    </div>
</body>
</html>`, html.EscapeString(detail))
}
