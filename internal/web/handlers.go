package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/desertthunder/cratedig/internal/auth"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/recommend"
	"github.com/desertthunder/cratedig/internal/server"
	"github.com/desertthunder/cratedig/internal/services"
	"github.com/desertthunder/cratedig/internal/shared"
	"github.com/desertthunder/cratedig/internal/tasks"
)

// Recommendations serves GET /recommendations?genre&era&language&offset.
func (a *App) Recommendations(w http.ResponseWriter, r *http.Request) {
	session := SessionFrom(r.Context())
	query := r.URL.Query()

	offset := 0
	if raw := query.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			server.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "offset must be a non-negative integer")
			return
		}
		offset = n
	}

	criteria := models.SearchCriteria{
		Genre:    query.Get("genre"),
		Era:      models.Era(query.Get("era")),
		Language: query.Get("language"),
		Offset:   offset,
	}

	out, err := a.Recommender.Search(r.Context(), criteria, session.Credential)
	a.persist(r.Context(), session, out.Auth)
	if err != nil {
		a.writeRecommendError(w, err)
		return
	}

	server.WriteJSON(w, http.StatusOK, out.Page)
}

func (a *App) writeRecommendError(w http.ResponseWriter, err error) {
	code := recommend.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case recommend.CodeEmptyCriteria:
		status = http.StatusBadRequest
	case recommend.CodeUnauthorized, recommend.CodeRefreshFailed:
		status = http.StatusUnauthorized
	case "":
		code = recommend.CodeProviderError
	}

	message := err.Error()
	var re *recommend.Error
	if errors.As(err, &re) {
		message = re.Message
	}

	if status >= http.StatusInternalServerError {
		a.Logger.Error("recommendation failed", "error", err)
	}
	server.WriteError(w, status, string(code), message)
}

// Genres serves GET /genres. Provider seeds are used when a session is attached; anonymous callers get the built-in
// list.
func (a *App) Genres(w http.ResponseWriter, r *http.Request) {
	token := ""
	if session := SessionFrom(r.Context()); session != nil {
		if result := a.ensure(r.Context(), session); result.OK() {
			token = result.Credential.AccessToken
		}
	}

	server.WriteJSON(w, http.StatusOK, recommend.NewCatalog(r.Context(), a.Profile, token))
}

type createPlaylistRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TrackURIs   []string `json:"trackUris"`
}

type createPlaylistResponse struct {
	Success    bool   `json:"success"`
	PlaylistID string `json:"playlistId"`
	URL        string `json:"url"`
}

// CreatePlaylist serves POST /playlist/create.
func (a *App) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	session := SessionFrom(r.Context())

	var body createPlaylistRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		server.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "request body must be JSON")
		return
	}

	input := tasks.CreatePlaylistInput{
		SessionID:   session.ID,
		Name:        body.Name,
		Description: body.Description,
		TrackURIs:   body.TrackURIs,
	}
	if err := input.Validate(); err != nil {
		server.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "name and at least one track are required")
		return
	}

	result := a.ensure(r.Context(), session)

	created, err := a.Playlists.Create(r.Context(), nil, result.Credential.AccessToken, input)
	if err != nil {
		var pe *services.ProviderError
		switch {
		case errors.Is(err, shared.ErrMissingArgument):
			server.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		case result.State == auth.RefreshFailed && errors.As(err, &pe) && pe.Unauthorized():
			server.WriteError(w, http.StatusUnauthorized, string(recommend.CodeRefreshFailed), "session expired, sign in again")
		default:
			a.Logger.Error("playlist creation failed", "session", session.ID, "error", err)
			server.WriteError(w, http.StatusInternalServerError, string(recommend.CodeProviderError), "failed to create playlist")
		}
		return
	}

	server.WriteJSON(w, http.StatusOK, createPlaylistResponse{
		Success:    true,
		PlaylistID: created.Playlist.ProviderID,
		URL:        created.Playlist.URL,
	})
}
