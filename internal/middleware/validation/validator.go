package validation

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxTerms      int
	MaxTermLength int
	Logger        *zap.Logger
}

// SearchMiddleware bounds semantic search payloads before they reach the
// engine; every extra term costs embedding calls.
func SearchMiddleware(cfg Config) fiber.Handler {
	if cfg.MaxTerms == 0 {
		cfg.MaxTerms = 10
	}
	if cfg.MaxTermLength == 0 {
		cfg.MaxTermLength = 200
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		var req struct {
			QueryTerms []string `json:"query_terms"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		if len(req.QueryTerms) > cfg.MaxTerms {
			cfg.Logger.Warn("Search rejected, too many terms",
				zap.String("ip", c.IP()),
				zap.Int("terms", len(req.QueryTerms)),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Too many query terms",
			})
		}

		for _, term := range req.QueryTerms {
			if len(term) > cfg.MaxTermLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Query term exceeds maximum length",
				})
			}
		}

		return c.Next()
	}
}
