// Package router ties the identity resolver and the session store together
// per inbound message and owns every user-facing reply text.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rhuann-Nunes/jarvis-bot/assistant"
	"github.com/Rhuann-Nunes/jarvis-bot/directory"
	"github.com/Rhuann-Nunes/jarvis-bot/session"
	"github.com/Rhuann-Nunes/jarvis-bot/whatsapp"
)

type resolver interface {
	ResolveByPhone(ctx context.Context, raw string) (directory.Identity, bool, error)
}

type Router struct {
	resolver  resolver
	sessions  *session.Store
	sender    whatsapp.Sender
	typing    whatsapp.Typing
	logger    *slog.Logger
	templates Templates
}

type Options struct {
	// Typing is optional; without it no composing indicator is shown.
	Typing    whatsapp.Typing
	Logger    *slog.Logger
	Templates *Templates
}

func New(res *directory.Resolver, sessions *session.Store, sender whatsapp.Sender, opts Options) *Router {
	return newRouter(res, sessions, sender, opts)
}

func newRouter(res resolver, sessions *session.Store, sender whatsapp.Sender, opts Options) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	templates := DefaultTemplates()
	if opts.Templates != nil {
		templates = *opts.Templates
	}
	return &Router{
		resolver:  res,
		sessions:  sessions,
		sender:    sender,
		typing:    opts.Typing,
		logger:    logger,
		templates: templates,
	}
}

// Handle processes one inbound message end to end. Collaborator failures are
// answered with a generic reply and never propagate; the returned error only
// reports a failed reply send, for the caller to log. A panic while handling
// is logged, answered with the generic error text, and swallowed.
func (r *Router) Handle(ctx context.Context, msg whatsapp.Inbound) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("router_handle_panic", "from", msg.From, "panic", fmt.Sprint(rec))
			err = r.reply(ctx, msg.From, r.templates.InternalFail)
		}
	}()

	body := strings.TrimSpace(msg.Body)
	if body == "" {
		return nil
	}
	if msg.IsGroup {
		r.logger.Debug("router_group_ignored", "from", msg.From)
		return nil
	}
	// "!"-prefixed messages belong to the gateway's own command layer.
	if strings.HasPrefix(body, "!") {
		return nil
	}

	rawNumber := strings.TrimSuffix(msg.From, "@c.us")
	user, ok, err := r.resolver.ResolveByPhone(ctx, rawNumber)
	if err != nil {
		r.logger.Warn("router_resolve_failed", "from", msg.From, "error", err.Error())
		return r.reply(ctx, msg.From, r.templates.InternalFail)
	}
	if !ok {
		r.logger.Info("router_unregistered", "from", msg.From)
		return r.reply(ctx, msg.From, r.templates.Welcome)
	}
	if !user.NotificationsEnabled {
		r.logger.Info("router_opt_in_required", "user_id", user.UserID)
		return r.reply(ctx, msg.From, r.templates.optIn(user.DisplayName))
	}

	switch strings.ToLower(body) {
	case "/help", "ajuda":
		return r.reply(ctx, msg.From, r.templates.Help)
	case "/reiniciar":
		r.sessions.Reset(user.UserID)
		r.logger.Info("router_session_reset", "user_id", user.UserID)
		return r.reply(ctx, msg.From, r.templates.Restarted)
	}

	answer, failText := r.converse(ctx, user, msg.From, body)
	if failText != "" {
		return r.reply(ctx, msg.From, failText)
	}
	return r.reply(ctx, msg.From, answer)
}

// converse runs the session exchange with the typing indicator held around
// it. On failure it returns the user-facing text for that failure kind.
func (r *Router) converse(ctx context.Context, user directory.Identity, address, body string) (answer, failText string) {
	r.startTyping(ctx, address)
	defer r.stopTyping(ctx, address)

	sess := r.sessions.GetOrCreate(user.UserID, user.DisplayName)
	if err := r.sessions.EnsureInitialized(ctx, sess); err != nil {
		r.logger.Warn("router_session_init_failed", "user_id", user.UserID, "error", err.Error())
		return "", r.templates.Unavailable
	}

	answer, err := r.sessions.Exchange(ctx, sess, body)
	if err != nil {
		if errors.Is(err, assistant.ErrBadResponse) {
			r.logger.Error("router_bad_assistant_response", "user_id", user.UserID, "error", err.Error())
		} else {
			r.logger.Warn("router_exchange_failed", "user_id", user.UserID, "error", err.Error())
		}
		return "", r.templates.Unavailable
	}
	return answer, ""
}

func (r *Router) reply(ctx context.Context, address, text string) error {
	if err := r.sender.SendText(ctx, address, text); err != nil {
		return fmt.Errorf("send reply to %s: %w", address, err)
	}
	return nil
}

func (r *Router) startTyping(ctx context.Context, address string) {
	if r.typing == nil {
		return
	}
	if err := r.typing.StartTyping(ctx, address); err != nil {
		r.logger.Debug("router_typing_start_failed", "chat", address, "error", err.Error())
	}
}

func (r *Router) stopTyping(ctx context.Context, address string) {
	if r.typing == nil {
		return
	}
	if err := r.typing.StopTyping(ctx, address); err != nil {
		r.logger.Debug("router_typing_stop_failed", "chat", address, "error", err.Error())
	}
}
