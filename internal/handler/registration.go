package handler

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/happening-registration/internal/export"
	"github.com/Shivanand-hulikatti/happening-registration/internal/model"
	"github.com/Shivanand-hulikatti/happening-registration/internal/repository"
)

// PostRegistration handles POST /registration
// Runs validation and the admission decision for one registrant.
func (h *Handler) PostRegistration(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := decodeJSON(w, r, &reg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	out, err := h.registrations.Register(r.Context(), reg)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, validationResponse(verr))
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	status, res := outcomeResponse(out, reg.Type)
	writeJSON(w, status, res)
}

// DeleteRegistration handles DELETE /registration
func (h *Handler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	var short model.ShortRegistration
	if err := decodeJSON(w, r, &short); err != nil {
		writeError(w, http.StatusBadRequest, "Error deleting registration.")
		return
	}

	if err := h.registrations.Delete(r.Context(), short); err != nil {
		h.log.Error("delete registration", zap.String("slug", short.Slug), zap.Error(err))
		writeError(w, http.StatusBadRequest, "Error deleting registration.")
		return
	}

	writeMessage(w, http.StatusOK, fmt.Sprintf("Registration (%s) with email = %s and slug = %s deleted.",
		short.Type, short.Email, short.Slug))
}

// GetRegistrationCounts handles GET /registration?slug=...
// Returns accepted and waitlisted counts per spot range.
func (h *Handler) GetRegistrationCounts(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "No slug specified.")
		return
	}

	counts, err := h.registrations.Counts(r.Context(), slug)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count registrations")
		return
	}
	if counts == nil {
		counts = []model.SpotRangeCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

// GetRegistrations handles GET /registration/{link}
// The link is the happening's verification token. Without ?download an HTML
// listing is rendered; with it the table is sent as a CSV attachment, or as
// a workbook when format=xlsx. ?testing leaves out submit dates.
func (h *Handler) GetRegistrations(w http.ResponseWriter, r *http.Request) {
	link := chi.URLParam(r, "link")
	query := r.URL.Query()
	_, download := query["download"]
	_, testing := query["testing"]

	hap, regs, err := h.registrations.Listing(r.Context(), link)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list registrations")
		return
	}

	if !download {
		h.renderListing(w, hap, regs, link)
		return
	}

	if query.Get("format") == "xlsx" {
		data, err := export.XLSX(regs, testing)
		if err != nil {
			h.log.Error("render workbook", zap.String("slug", hap.Slug), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to render workbook")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="pameldte-%s.xlsx"`, hap.Slug))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="pameldte-%s.csv"`, hap.Slug))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.CSV(regs, testing)))
}

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html lang="no">
<head>
<meta charset="utf-8">
<title>Påmeldte til {{.Happening.Title}}</title>
</head>
<body>
<h1>Påmeldte til {{.Happening.Title}}</h1>
<p>
  <a href="/registration/{{.Link}}?download">Last ned som CSV</a> |
  <a href="/registration/{{.Link}}?download&amp;format=xlsx">Last ned som Excel</a>
</p>
{{if .Rows}}
<table>
<thead>
<tr>
  <th>E-post</th><th>Fornavn</th><th>Etternavn</th><th>Studieretning</th><th>Trinn</th>
  <th>Påmeldt</th><th>Venteliste</th>
  {{range .Questions}}<th>{{.}}</th>{{end}}
</tr>
</thead>
<tbody>
{{range .Rows}}
<tr>
  {{with .Registration}}<td>{{.Email}}</td><td>{{.FirstName}}</td><td>{{.LastName}}</td><td>{{.Degree}}</td><td>{{.DegreeYear}}</td>
  <td>{{with .SubmitDate}}{{.Format "2006-01-02 15:04:05"}}{{end}}</td>
  <td>{{if .WaitList}}Ja{{else}}Nei{{end}}</td>{{end}}
  {{range .Answers}}<td>{{.}}</td>{{end}}
</tr>
{{end}}
</tbody>
</table>
{{else}}
<p>Ingen påmeldte enda.</p>
{{end}}
</body>
</html>
`))

type listingData struct {
	Happening *model.Happening
	Rows      []listingRow
	Questions []string
	Link      string
}

// listingRow holds one registrant and their answers in column order.
type listingRow struct {
	Registration model.Registration
	Answers      []string
}

// listingTable lays out registrations under one column per distinct
// question, in order of first appearance. Unanswered cells stay empty.
func listingTable(regs []model.Registration) ([]string, []listingRow) {
	var questions []string
	column := make(map[string]int)
	for _, reg := range regs {
		for _, a := range reg.Answers {
			if _, ok := column[a.Question]; !ok {
				column[a.Question] = len(questions)
				questions = append(questions, a.Question)
			}
		}
	}

	rows := make([]listingRow, 0, len(regs))
	for _, reg := range regs {
		cells := make([]string, len(questions))
		for _, a := range reg.Answers {
			cells[column[a.Question]] = a.Answer
		}
		rows = append(rows, listingRow{Registration: reg, Answers: cells})
	}
	return questions, rows
}

func (h *Handler) renderListing(w http.ResponseWriter, hap *model.Happening, regs []model.Registration, link string) {
	questions, rows := listingTable(regs)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	err := listingTemplate.Execute(w, listingData{Happening: hap, Rows: rows, Questions: questions, Link: link})
	if err != nil {
		h.log.Error("render listing", zap.String("slug", hap.Slug), zap.Error(err))
	}
}
