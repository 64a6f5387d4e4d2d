package flow

import (
	tele "gopkg.in/telebot.v4"

	"livereport-bot/core/telegram"
	tghelpers "livereport-bot/core/telegram/helpers"
	"livereport-bot/core/telegram/middleware"
)

// AttachTransport wires the bot-backed dependencies that only exist
// once the bot itself is built. Must be called before updates arrive.
func (s *Service) AttachTransport(media Media, notifier Notifier) {
	s.media = media
	s.notify = notifier
}

func inboundFrom(c tele.Context) Inbound {
	in := Inbound{Text: c.Text()}
	if sender := c.Sender(); sender != nil {
		in.UserID = sender.ID
		in.Username = sender.Username
	}
	if chat := c.Chat(); chat != nil {
		in.ChatID = chat.ID
	}
	return in
}

func mdReplier(c tele.Context) Replier {
	return func(text string) error {
		return tghelpers.SendMD(c, text)
	}
}

// Routes returns the full route table of the bot. Admin commands are
// guarded per-route so the rest of the bot stays open to operators.
func (s *Service) Routes(adminID int64) []telegram.Route {
	adminOnly := middleware.AdminOnly(middleware.AdminOptions{AdminID: adminID})

	admin := func(handler func(c tele.Context) error) tele.HandlerFunc {
		return adminOnly(handler)
	}

	return []telegram.Route{
		{Endpoint: "/start", Handler: func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "start")
			return s.HandleStart(ctx, inboundFrom(c), mdReplier(c))
		}},
		{Endpoint: tele.OnText, Handler: func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "text")
			return s.HandleText(ctx, inboundFrom(c), mdReplier(c))
		}},
		{Endpoint: tele.OnPhoto, Handler: func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "photo")
			photo := c.Message().Photo
			if photo == nil {
				return nil
			}
			return s.HandlePhoto(ctx, inboundFrom(c), photo.FileID, mdReplier(c))
		}},
		{Endpoint: "/approve", Handler: admin(func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "approve")
			return s.HandleApprove(ctx, c.Message().Payload, mdReplier(c))
		})},
		{Endpoint: "/reject", Handler: admin(func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "reject")
			return s.HandleReject(ctx, c.Message().Payload, mdReplier(c))
		})},
		{Endpoint: "/deactivate", Handler: admin(func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "deactivate")
			return s.HandleDeactivate(ctx, c.Message().Payload, mdReplier(c))
		})},
		{Endpoint: "/reactivate", Handler: admin(func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "reactivate")
			return s.HandleReactivate(ctx, c.Message().Payload, mdReplier(c))
		})},
		{Endpoint: "/verify", Handler: admin(func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "verify")
			return s.HandleVerifyReport(ctx, c.Message().Payload, mdReplier(c))
		})},
		{Endpoint: "/rejectreport", Handler: admin(func(c tele.Context) error {
			ctx := tghelpers.WithHandler(c, "rejectreport")
			return s.HandleRejectReport(ctx, c.Message().Payload, mdReplier(c))
		})},
	}
}

// Commands lists the command menu. Admin commands stay hidden from the
// public menu.
func Commands() []telegram.Command {
	return []telegram.Command{
		{Text: "start", Description: "Mulai pendaftaran atau lanjutkan"},
		{Text: "approve", Hidden: true},
		{Text: "reject", Hidden: true},
		{Text: "deactivate", Hidden: true},
		{Text: "reactivate", Hidden: true},
		{Text: "verify", Hidden: true},
		{Text: "rejectreport", Hidden: true},
	}
}
