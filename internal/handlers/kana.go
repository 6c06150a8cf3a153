package handlers

import (
	"net/http"
	"strconv"

	"nenegana-backend/internal/kana"
	"nenegana-backend/internal/models"
)

type KanaHandler struct{}

func NewKanaHandler() *KanaHandler {
	return &KanaHandler{}
}

// selectionFromQuery builds a selection from ?types=&groups=. Absent
// parameters fall back to the default selection.
func selectionFromQuery(r *http.Request) (kana.Selection, map[string]string) {
	sel := kana.DefaultSelection()
	fields := make(map[string]string)

	if types := parseList(r, "types"); types != nil {
		sel.Types = make([]kana.Type, 0, len(types))
		for _, t := range types {
			parsed, err := kana.ParseType(t)
			if err != nil {
				fields["types"] = err.Error()
				break
			}
			sel.Types = append(sel.Types, parsed)
		}
	}
	if groups := parseList(r, "groups"); groups != nil {
		sel.Groups = groups
		if err := (kana.Selection{Groups: groups}).Validate(); err != nil {
			fields["groups"] = err.Error()
		}
	}
	return sel, fields
}

// List returns the whole catalog, or the filtered pool when types or groups
// are given.
func (h *KanaHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("types") && !q.Has("groups") {
		writeJSON(w, http.StatusOK, map[string]interface{}{"kana": kana.All()})
		return
	}

	sel, fields := selectionFromQuery(r)
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"kana": kana.Filter(sel)})
}

func (h *KanaHandler) Groups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"groups":    kana.Groups(),
		"types":     []kana.Type{kana.Hiragana, kana.Katakana},
		"selection": kana.DefaultSelection(),
	})
}

// Practice returns study cards for the selection. Romaji is shown unless
// show_romaji=false.
func (h *KanaHandler) Practice(w http.ResponseWriter, r *http.Request) {
	sel, fields := selectionFromQuery(r)

	showRomaji := true
	if v := r.URL.Query().Get("show_romaji"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fields["show_romaji"] = "Must be true or false"
		}
		showRomaji = b
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	pool := kana.Filter(sel)
	cards := make([]models.PracticeCard, len(pool))
	for i, k := range pool {
		cards[i] = models.PracticeCard{Char: k.Char, Type: k.Type, Group: k.Group}
		if showRomaji {
			cards[i].Romaji = k.Romaji
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"selection":   sel,
		"show_romaji": showRomaji,
		"cards":       cards,
	})
}
