package http

import (
	"html/template"
	"log/slog"
	"net/http"
)

var errorPageTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Code}} {{.Status}}</title></head>
<body>
<center><h1>{{.Code}} {{.Status}}</h1></center>
<center><p>{{.Message}}</p></center>
<hr><center>dirserve</center>
</body>
</html>
`))

func writeErrorPage(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)

	err := errorPageTemplate.Execute(w, struct {
		Code    int
		Status  string
		Message string
	}{code, http.StatusText(code), message})
	if err != nil {
		slog.Error("failed to render error page", "error", err)
	}
}
