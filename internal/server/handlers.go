package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/gameshowhq/gameshow/internal/content"
	"github.com/gameshowhq/gameshow/internal/gamecode"
	"github.com/gameshowhq/gameshow/internal/model"
	"github.com/gameshowhq/gameshow/internal/rounds"
	"github.com/gameshowhq/gameshow/internal/store"
)

// API is the HTTP surface: REST for all mutations, one-way websockets for
// replication. Route semantics are intentionally thin; game rules live in
// the host session, identity and persistence in the service.
type API struct {
	svc       *GameService
	hub       *Hub
	logger    *log.Logger
	publicURL string
	monitor   *Monitor
	upgrader  websocket.Upgrader
}

// NewAPI creates the handler set.
func NewAPI(svc *GameService, hub *Hub, publicURL string, corsOrigins []string, logger *log.Logger) *API {
	allowed := make(map[string]bool, len(corsOrigins))
	allowAll := false
	for _, origin := range corsOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}
	return &API{
		svc:       svc,
		hub:       hub,
		logger:    logger.WithPrefix("api"),
		publicURL: publicURL,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if allowAll || len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Routes registers every endpoint on a fresh mux.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", a.handleHealth)

	mux.HandleFunc("POST /api/questions/generate", a.handleGenerateQuestions)
	mux.HandleFunc("POST /api/questions/regenerate", a.handleRegenerateQuestion)

	mux.HandleFunc("POST /api/games", a.handleCreateGame)
	mux.HandleFunc("GET /api/games/{game_id}", a.handleGetGame)
	mux.HandleFunc("PATCH /api/games/{game_id}", a.handleUpdateGame)
	// Code lookups live off the /api/games/ prefix: a literal "code"
	// segment there is ambiguous against the {game_id} subroutes under
	// ServeMux precedence rules.
	mux.HandleFunc("GET /api/game-codes/{code}", a.handleGetGameByCode)
	mux.HandleFunc("POST /api/game-codes/{code}/host", a.handleHostAuth)
	mux.HandleFunc("POST /api/games/{code}/join", a.handleJoin)

	mux.HandleFunc("GET /api/games/{game_id}/teams", a.handleTeams)
	mux.HandleFunc("GET /api/games/{game_id}/players", a.handlePlayers)
	mux.HandleFunc("GET /api/games/{game_id}/state", a.handleGetState)
	mux.HandleFunc("PATCH /api/games/{game_id}/state", a.handlePatchState)
	mux.HandleFunc("GET /api/games/{game_id}/buzzes", a.handleListBuzzes)
	mux.HandleFunc("GET /api/games/{game_id}/qr", a.handleQR)

	mux.HandleFunc("POST /api/games/{game_id}/start", a.handleStartGame)
	mux.HandleFunc("POST /api/games/{game_id}/rounds/ack", a.handleRoundAck)
	mux.HandleFunc("POST /api/games/{game_id}/rounds/skip", a.handleRoundSkip)
	mux.HandleFunc("POST /api/games/{game_id}/rounds/action", a.handleRoundAction)
	mux.HandleFunc("POST /api/games/{game_id}/guess", a.handleSubmitGuess)
	mux.HandleFunc("POST /api/games/{game_id}/buzz", a.handleBuzz)
	mux.HandleFunc("POST /api/games/{game_id}/buzz/reset", a.handleBuzzReset)
	mux.HandleFunc("POST /api/games/{game_id}/buzz/enable", a.handleBuzzEnable)
	mux.HandleFunc("POST /api/games/{game_id}/buzz/disable", a.handleBuzzDisable)

	mux.HandleFunc("POST /api/teams/{team_id}/score", a.handleTeamScore)
	mux.HandleFunc("POST /api/players/{player_id}/disconnect", a.handleDisconnect)

	mux.HandleFunc("GET /ws/games/{game_id}", a.handleWebSocket)

	return mux
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var params CreateGameParams
	if !decodeBody(w, r, &params) {
		return
	}
	game, teams, err := a.svc.CreateGame(r.Context(), params)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"game": game, "teams": teams})
}

func (a *API) handleGetGame(w http.ResponseWriter, r *http.Request) {
	game, err := a.svc.GetGame(r.Context(), r.PathValue("game_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (a *API) handleUpdateGame(w http.ResponseWriter, r *http.Request) {
	var updates GameUpdate
	if !decodeBody(w, r, &updates) {
		return
	}
	game, err := a.svc.UpdateGame(r.Context(), r.PathValue("game_id"), updates)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (a *API) handleGetGameByCode(w http.ResponseWriter, r *http.Request) {
	game, err := a.svc.GetGameByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (a *API) handleHostAuth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pin string `json:"pin"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	game, err := a.svc.HostAuth(r.Context(), r.PathValue("code"), body.Pin)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TeamID     string `json:"team_id"`
		PlayerName string `json:"player_name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.PlayerName == "" {
		writeError(w, http.StatusBadRequest, "player_name is required")
		return
	}
	player, err := a.svc.JoinGame(r.Context(), r.PathValue("code"), body.TeamID, body.PlayerName)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, player)
}

func (a *API) handleTeams(w http.ResponseWriter, r *http.Request) {
	a.requireGame(w, r, func(gameID string) {
		teams, err := a.svc.Teams(r.Context(), gameID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, teams)
	})
}

func (a *API) handlePlayers(w http.ResponseWriter, r *http.Request) {
	a.requireGame(w, r, func(gameID string) {
		players, err := a.svc.Players(r.Context(), gameID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	})
}

func (a *API) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := a.svc.GetState(r.Context(), r.PathValue("game_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) handlePatchState(w http.ResponseWriter, r *http.Request) {
	var patch model.StatePatch
	if !decodeBody(w, r, &patch) {
		return
	}
	state, err := a.svc.PatchState(r.Context(), r.PathValue("game_id"), patch)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) handleListBuzzes(w http.ResponseWriter, r *http.Request) {
	a.requireGame(w, r, func(gameID string) {
		buzzes, err := a.svc.ListBuzzes(r.Context(), gameID)
		if err != nil {
			a.writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, buzzes)
	})
}

func (a *API) handleQR(w http.ResponseWriter, r *http.Request) {
	game, err := a.svc.GetGame(r.Context(), r.PathValue("game_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	joinURL := a.publicURL + "/join?code=" + gamecode.Format(game.Code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render qr code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (a *API) handleStartGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("game_id")
	if _, err := a.svc.StartGame(r.Context(), gameID, a.monitor); err != nil {
		a.writeServiceError(w, err)
		return
	}
	game, err := a.svc.GetGame(r.Context(), gameID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (a *API) handleRoundAck(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.AckRules(r.PathValue("game_id")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleRoundSkip(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.SkipRound(r.PathValue("game_id")); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleRoundAction(w http.ResponseWriter, r *http.Request) {
	var params RoundActionParams
	if !decodeBody(w, r, &params) {
		return
	}
	if err := a.svc.RoundAction(r.PathValue("game_id"), params); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleSubmitGuess(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID string `json:"player_id"`
		Guess    int    `json:"guess"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.PlayerID == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if err := a.svc.SubmitGuess(r.Context(), r.PathValue("game_id"), body.PlayerID, body.Guess); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleBuzz(w http.ResponseWriter, r *http.Request) {
	var params BuzzParams
	if !decodeBody(w, r, &params) {
		return
	}
	if params.TeamID == "" {
		writeError(w, http.StatusBadRequest, "team_id is required")
		return
	}
	if err := a.svc.Buzz(r.Context(), r.PathValue("game_id"), params); err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

func (a *API) handleBuzzReset(w http.ResponseWriter, r *http.Request) {
	state, err := a.svc.ResetBuzz(r.Context(), r.PathValue("game_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) handleBuzzEnable(w http.ResponseWriter, r *http.Request) {
	state, err := a.svc.SetBuzzing(r.Context(), r.PathValue("game_id"), true)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) handleBuzzDisable(w http.ResponseWriter, r *http.Request) {
	state, err := a.svc.SetBuzzing(r.Context(), r.PathValue("game_id"), false)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *API) handleTeamScore(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Delta int `json:"delta"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	team, err := a.svc.AddTeamScore(r.Context(), r.PathValue("team_id"), body.Delta)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (a *API) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	player, err := a.svc.DisconnectPlayer(r.Context(), r.PathValue("player_id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (a *API) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GameID string `json:"game_id,omitempty"`
		content.Request
	}
	if !decodeBody(w, r, &body) {
		return
	}
	set, err := a.svc.GenerateQuestions(r.Context(), body.GameID, body.Request)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (a *API) handleRegenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var req content.RegenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	replacement, err := a.svc.RegenerateQuestion(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replacement)
}

// handleWebSocket upgrades a replication subscriber. The connection starts
// with the display projection; a hello frame narrows it to a role.
func (a *API) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("game_id")
	if _, err := a.svc.GetGame(r.Context(), gameID); err != nil {
		a.writeServiceError(w, err)
		return
	}
	ws, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	conn := NewConnection(ws, gameID, a.logger)
	a.hub.Add(conn)
	// New subscribers get the current truth immediately rather than
	// waiting for the next mutation.
	a.svc.Broadcast(r.Context(), gameID)
}

// requireGame confirms the game exists before running fn with its id.
func (a *API) requireGame(w http.ResponseWriter, r *http.Request, fn func(gameID string)) {
	gameID := r.PathValue("game_id")
	if _, err := a.svc.GetGame(r.Context(), gameID); err != nil {
		a.writeServiceError(w, err)
		return
	}
	fn(gameID)
}

// writeServiceError maps domain errors onto HTTP statuses.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrCodeTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrBadPin), errors.Is(err, ErrPinNotSet):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTeam):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCannotBuzz),
		errors.Is(err, ErrNoSession),
		errors.Is(err, rounds.ErrNoRound),
		errors.Is(err, rounds.ErrTooLate),
		errors.Is(err, rounds.ErrStealClosed),
		errors.Is(err, rounds.ErrBadPhase):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, rounds.ErrUnknownTeam), errors.Is(err, ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
