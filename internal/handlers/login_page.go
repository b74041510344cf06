package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"storefront/api/internal/middleware"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!doctype html>
<html>
<head><meta charset="utf-8"><title>Admin sign in</title></head>
<body>
<form id="login" data-from="{{.From}}">
  <label>Username <input name="username" autocomplete="username" required></label>
  <label>Password <input name="password" type="password" autocomplete="current-password" required></label>
  <button type="submit">Sign in</button>
</form>
<script>
document.getElementById("login").addEventListener("submit", async (e) => {
  e.preventDefault();
  const form = e.target;
  const res = await fetch("/api/auth/login", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({username: form.username.value, password: form.password.value}),
  });
  if (res.ok) {
    window.location.assign(form.dataset.from || "{{.Home}}");
  }
});
</script>
</body>
</html>
`))

type loginPageData struct {
	From string
	Home string
}

// LoginPage serves the sign-in form. "from" is only honoured when it points
// below the protected prefix, so the page cannot be used as an open
// redirect.
func (h HandlerSet) LoginPage(c *gin.Context) {
	home := h.cfg.Gate.ProtectedPrefix
	from := c.Query("from")
	if !middleware.IsProtectedPath(from, home) {
		from = ""
	}

	c.Render(http.StatusOK, render.HTML{
		Template: loginTemplate,
		Data:     loginPageData{From: from, Home: home},
	})
}
