package controllers

import (
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"coronabot/internal/commands"
	"coronabot/internal/dispatch"
	"coronabot/internal/errs"
	"coronabot/internal/providers"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// CommandController adapts the command surface to HTTP. It plays the role
// of the chat dispatcher: render reply payloads, map error kinds to
// response codes.
type CommandController struct {
	logger   providers.Logger
	commands *commands.Commands
}

func NewCommandController(logger providers.Logger, commands *commands.Commands) *CommandController {
	return &CommandController{
		logger:   logger,
		commands: commands,
	}
}

type commandError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (cc *CommandController) reply(w http.ResponseWriter, msg *dispatch.Message, err error) {
	if err != nil {
		kind := errs.KindOf(err)
		status := http.StatusInternalServerError
		switch kind {
		case errs.InvalidArgument:
			status = http.StatusBadRequest
		case errs.NotFound:
			status = http.StatusNotFound
		case errs.LimitExceeded:
			status = http.StatusConflict
		case errs.RemoteQuery:
			status = http.StatusBadGateway
		}
		if status == http.StatusInternalServerError {
			cc.logger.Errorf(providers.TypeHTTP, "Command failed: %s", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(commandError{Error: err.Error(), Kind: kind.String()})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(msg)
}

func (cc *CommandController) Summary(w http.ResponseWriter, r *http.Request) {
	msg, err := cc.commands.Summary(r.Context())
	cc.reply(w, msg, err)
}

func (cc *CommandController) Rank(w http.ResponseWriter, r *http.Request) {
	start := 1
	count := 6
	if v := r.URL.Query().Get("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			cc.reply(w, nil, errs.New(errs.InvalidArgument, "start must be a number"))
			return
		}
		start = n
	}
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			cc.reply(w, nil, errs.New(errs.InvalidArgument, "count must be a number"))
			return
		}
		count = n
	}
	msg, err := cc.commands.Rank(r.Context(), start, count)
	cc.reply(w, msg, err)
}

func (cc *CommandController) Status(w http.ResponseWriter, r *http.Request) {
	msg, err := cc.commands.Status(r.Context(), r.URL.Query().Get("name"))
	cc.reply(w, msg, err)
}

type subscribeRequest struct {
	Guild   int64  `json:"guild"`
	Channel int64  `json:"channel"`
	User    int64  `json:"user"`
	Region  string `json:"region"`
}

func (cc *CommandController) Subscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cc.reply(w, nil, errs.New(errs.InvalidArgument, "malformed request body"))
		return
	}
	inv := dispatch.Invocation{GuildID: payload.Guild, ChannelID: payload.Channel, UserID: payload.User}
	msg, err := cc.commands.Subscribe(r.Context(), inv, payload.Channel, payload.Region)
	cc.reply(w, msg, err)
}

type unsubscribeRequest struct {
	Guild   int64  `json:"guild"`
	Channel int64  `json:"channel"`
	User    int64  `json:"user"`
	ID      *int   `json:"id"`
}

func (cc *CommandController) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cc.reply(w, nil, errs.New(errs.InvalidArgument, "malformed request body"))
		return
	}
	inv := dispatch.Invocation{GuildID: payload.Guild, ChannelID: payload.Channel, UserID: payload.User}
	index, hasIndex := 0, false
	if payload.ID != nil {
		index, hasIndex = *payload.ID, true
	}
	msg, err := cc.commands.Unsubscribe(r.Context(), inv, index, hasIndex)
	cc.reply(w, msg, err)
}

func (cc *CommandController) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	guild, err := strconv.ParseInt(r.URL.Query().Get("guild"), 10, 64)
	if err != nil {
		cc.reply(w, nil, errs.New(errs.InvalidArgument, "guild must be a number"))
		return
	}
	msg, cmdErr := cc.commands.Subscriptions(r.Context(), dispatch.Invocation{GuildID: guild})
	cc.reply(w, msg, cmdErr)
}
