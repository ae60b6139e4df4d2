package api

import (
	"html/template"
	"net/http"

	"github.com/jmcleod/racetrack/storage"
)

var statsTemplate = template.Must(template.New("stats").Parse(`<html><head><title>Stats | Escape the Machine</title></head><body><h1>Completion Counters</h1>
{{- range .}}<p>{{.Mode}}: {{.Count}}</p>{{end -}}
</body></html>`))

const (
	unauthorizedPage = `<html><head><title>Unauthorized</title></head><body><center><h1>Unauthorized</h1><p>You do not have the rights to see this content.</p></center></body></html>`
	notFoundPage     = `<html><head><title>Not Found</title></head><body><center><h1>Not Found</h1><p>The content you are looking for can not be found at the location you specified.</p></center></body></html>`
)

// Stats renders the completion counters as an HTML page for session
// holders.
func (a *API) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if rs, ok := a.loadSession(r); !ok || rs.Session.UserID == "" {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(unauthorizedPage))
		return
	}

	counters, err := a.leaderboard.Counters(r.Context())
	if err != nil {
		a.log(r).Error().Err(err).Msg("stats query failed")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(notFoundPage))
		return
	}
	renderStats(w, counters)
}

func renderStats(w http.ResponseWriter, counters []storage.Counter) {
	w.WriteHeader(http.StatusOK)
	statsTemplate.Execute(w, counters)
}
