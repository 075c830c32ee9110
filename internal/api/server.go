package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/funding-advisor/internal/advisor"
	"github.com/david/funding-advisor/internal/ai"
	"github.com/david/funding-advisor/internal/auth"
	"github.com/david/funding-advisor/internal/profile"
)

const maxProfileUploadBytes = 10 * 1024 * 1024

type Server struct {
	Echo     *echo.Echo
	Pipeline *advisor.Pipeline
	Gen      ai.Generator

	sessions *sessionRegistry
}

func NewServer(pipeline *advisor.Pipeline, gen ai.Generator) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{
		Echo:     e,
		Pipeline: pipeline,
		Gen:      gen,
		sessions: newSessionRegistry(),
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.POST("/advise", s.handleAdvise)
	api.POST("/profile", s.handleProfile)
	api.POST("/reset", s.handleReset)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type adviseRequest struct {
	Query         string `json:"query"`
	Location      string `json:"location"`
	FundingNeed   int    `json:"funding_need"`
	Domain        string `json:"domain"`
	Comprehensive bool   `json:"comprehensive"`
}

type adviseResponse struct {
	ConversationToken string        `json:"conversation_token,omitempty"`
	FollowUp          bool          `json:"follow_up"`
	Message           string        `json:"message,omitempty"`
	Programs          []ProgramCard `json:"programs"`
}

func (s *Server) handleAdvise(c echo.Context) error {
	var req adviseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}

	conversationID, issueToken := s.conversationID(c)
	conv := s.sessions.get(conversationID)

	conv.mu.Lock()
	defer conv.mu.Unlock()

	params := advisor.QueryParams{
		FundingNeed:   req.FundingNeed,
		Domain:        req.Domain,
		Location:      req.Location,
		Comprehensive: req.Comprehensive,
	}

	result, next, err := s.Pipeline.Run(c.Request().Context(), req.Query, params, conv.session)
	if err != nil {
		var retrievalErr *advisor.RetrievalError
		if errors.As(err, &retrievalErr) {
			log.Printf("advise failed: %v", err)
			return echo.NewHTTPError(http.StatusBadGateway, "search backend unavailable, please retry")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "advise failed")
	}
	conv.session = next

	resp := adviseResponse{
		FollowUp: result.IsFollowUp,
		Programs: renderCards(result),
	}
	if result.NoMatches() {
		resp.Message = "No matching funding programs found. Try describing your project differently or broaden the domain."
	}
	if issueToken {
		token, err := auth.IssueConversationToken(conversationID)
		if err != nil {
			log.Printf("failed to issue conversation token: %v", err)
		} else {
			resp.ConversationToken = token
		}
	}
	if resp.Programs == nil {
		resp.Programs = []ProgramCard{}
	}

	return c.JSON(http.StatusOK, resp)
}

// conversationID resolves the caller's conversation from the bearer token,
// allocating a fresh one (and signalling that a token must be issued) when
// the token is absent or invalid.
func (s *Server) conversationID(c echo.Context) (uuid.UUID, bool) {
	header := c.Request().Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			if id, err := auth.ParseConversationToken(parts[1]); err == nil {
				return id, false
			}
		}
	}
	return uuid.New(), true
}

type profileResponse struct {
	Query string `json:"query"`
}

func (s *Server) handleProfile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing pdf upload: field 'file'")
	}
	if fileHeader.Size > maxProfileUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "pdf exceeds 10MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxProfileUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}

	text, err := profile.ExtractText(content)
	if err != nil {
		log.Printf("pdf extraction failed: %v", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "could not extract text from pdf")
	}

	query, err := ai.SummarizeProfile(c.Request().Context(), s.Gen, text)
	if err != nil {
		log.Printf("profile summary failed: %v", err)
		return echo.NewHTTPError(http.StatusBadGateway, "profile summarization unavailable")
	}

	return c.JSON(http.StatusOK, profileResponse{Query: query})
}

func (s *Server) handleReset(c echo.Context) error {
	id, fresh := s.conversationID(c)
	if !fresh {
		s.sessions.reset(id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
