package main

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

var webhooksTemplate = template.Must(template.New("all").Parse(`
{{define "table"}}
<table id="webhooks-table">
  <tr>
    <td>URL</td>
    <td></td>
  </tr>
  {{range .}}
    <tr>
      <td>{{.}}</td>
      <td>
        <button hx-delete="/webhook?url={{.}}" hx-target="#webhooks-table" hx-swap="outerHTML">
          Delete
        </button>
      </td>
    </tr>
  {{else}}
    <tr>
      <td colspan=2>No webhooks have been registered</td>
    </tr>
  {{end}}
</table>
{{end}}

{{define "base"}}
<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Checkers Webhooks</title>
  <style>
    * {
      font-family: sans-serif;
    }
    code, pre {
      font-family: monospace;
    }
  </style>
</head>
<body>
  <script src="https://unpkg.com/htmx.org@1.9.9"></script>
  <div style="width: 70%; margin: auto">
    <p>Every finished game is posted to these URLs as <code>{"id", "winner", "moves", "timestamp"}</code>.</p>
    <div style="display: flex; flex-direction: row">
      <div style="flex: 1">
        <form hx-post="/webhook" hx-target="#webhooks" hx-swap="innerHTML">
          <p>Add Webhook</p>
          <label>URL</label>
          <input name="url" type="url" />
          <button type="submit">Add</button>
        </form>
      </div>
      <div id="webhooks" style="flex: 1">
        {{template "table" .}}
      </div>
    </div>
  </div>
</body>
</html>
{{end}}
`))

func webhookRoutes(r *mux.Router, db store) {
	r.HandleFunc("/webhook", handleGetWebhooks(db)).Methods(http.MethodGet)
	r.HandleFunc("/webhook", handlePostWebhook(db)).Methods(http.MethodPost)
	r.HandleFunc("/webhook", handleDeleteWebhook(db)).Methods(http.MethodDelete)
}

func handleGetWebhooks(db store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if urls, err := getWebhooks(db); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		} else if err := webhooksTemplate.ExecuteTemplate(w, "base", urls); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

func handlePostWebhook(db store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJsonError(w, http.StatusBadRequest, "invalid form")
			return
		}
		raw := r.Form.Get("url")
		if !validWebhookURL(raw) {
			writeJsonError(w, http.StatusBadRequest, "invalid webhook url")
			return
		}
		if urls, err := addWebhook(db, raw); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		} else if err := webhooksTemplate.ExecuteTemplate(w, "table", urls); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

func handleDeleteWebhook(db store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("url")
		if urls, err := deleteWebhook(db, raw); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		} else if err := webhooksTemplate.ExecuteTemplate(w, "table", urls); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

// validWebhookURL accepts absolute http(s) URLs only.
func validWebhookURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func writeJsonError(w http.ResponseWriter, code int, message string) {
	bytes, err := json.Marshal(struct {
		Message string `json:"message"`
	}{message})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		log.Printf("failed to marshal json error message: %v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(bytes); err != nil {
		log.Printf("failed to write json error message: %v", err)
	}
}
