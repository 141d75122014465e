package post

import (
	"errors"

	"backend-piazza/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		actor, err := principal(c)
		if err != nil {
			return err
		}
		var req CreateRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		p, err := svc.Create(c.UserContext(), actor, req.Input())
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		topic, err := ParseTopic(c.Query("topic"))
		if err != nil {
			return toHTTPError(err)
		}
		views, err := svc.Browse(c.UserContext(), topic)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(views)
	})

	r.Get("/active/most-interesting", authMiddleware, func(c *fiber.Ctx) error {
		topic, err := ParseTopic(c.Query("topic"))
		if err != nil {
			return toHTTPError(err)
		}
		best, score, ok, err := svc.MostInteresting(c.UserContext(), topic)
		if err != nil {
			return toHTTPError(err)
		}
		if !ok {
			return c.JSON(fiber.Map{"message": "No active posts for this topic"})
		}
		return c.JSON(fiber.Map{"post": best, "score": score})
	})

	r.Get("/expired", authMiddleware, func(c *fiber.Ctx) error {
		topic, err := ParseTopic(c.Query("topic"))
		if err != nil {
			return toHTTPError(err)
		}
		posts, err := svc.ListExpired(c.UserContext(), topic)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(posts)
	})

	r.Get("/:id", authMiddleware, func(c *fiber.Ctx) error {
		view, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(view)
	})

	r.Post("/:id/like", authMiddleware, func(c *fiber.Ctx) error {
		actor, err := principal(c)
		if err != nil {
			return err
		}
		res, err := svc.Like(c.UserContext(), c.Params("id"), actor)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})

	r.Post("/:id/dislike", authMiddleware, func(c *fiber.Ctx) error {
		actor, err := principal(c)
		if err != nil {
			return err
		}
		res, err := svc.Dislike(c.UserContext(), c.Params("id"), actor)
		if err != nil {
			return toHTTPError(err)
		}
		return c.JSON(res)
	})

	r.Post("/:id/comment", authMiddleware, func(c *fiber.Ctx) error {
		actor, err := principal(c)
		if err != nil {
			return err
		}
		var req CommentRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		in, err := svc.Comment(c.UserContext(), c.Params("id"), actor, req.Text)
		if err != nil {
			return toHTTPError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(in)
	})
}

func principal(c *fiber.Ctx) (Principal, error) {
	id, ok := auth.CurrentIdentity(c)
	if !ok {
		return Principal{}, fiber.NewError(fiber.StatusUnauthorized, "missing identity")
	}
	return Principal{UserID: id.UserID, Username: id.Username}, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrExpired):
		return fiber.NewError(fiber.StatusForbidden, ErrExpired.Error())
	case errors.Is(err, ErrSelfInteraction):
		return fiber.NewError(fiber.StatusForbidden, ErrSelfInteraction.Error())
	default:
		log.Error().Err(err).Msg("post request failed")
		return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
	}
}
