// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "telehealth-agent/internal/common/errors"
	evaluateresponse "telehealth-agent/internal/workers/telehealth/evaluate-response"
	processturn "telehealth-agent/internal/workers/telehealth/process-turn"
	searchfaq "telehealth-agent/internal/workers/telehealth/search-faq"
)

const (
	errValidationFailed = "VALIDATION_FAILED"
	errBodyTooLarge     = "REQUEST_TOO_LARGE"
)

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "WebFAQMCP: Medical FAQ API",
		"description": "Search PubMed for medical literature and get structured FAQ-style answers",
		"endpoint":    "/faq",
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": s.config.ServiceName})
}

func (s *Server) searchFAQ(c *gin.Context) {
	s.search(c, searchfaq.SourcePubMed, "Error searching medical literature")
}

func (s *Server) searchSources(c *gin.Context) {
	s.search(c, searchfaq.SourceRaw, "Error searching medical literature")
}

func (s *Server) searchCurated(c *gin.Context) {
	s.search(c, searchfaq.SourceCurated, "Error searching curated FAQs")
}

// search serves the three FAQ routes. The route decides the source; a
// source in the body is ignored.
func (s *Server) search(c *gin.Context, source searchfaq.Source, failure string) {
	var input searchfaq.Input
	if !s.bind(c, searchfaq.TaskType, &input) {
		return
	}
	input.Source = source

	output, err := s.faq.Execute(c.Request.Context(), &input)
	if err != nil {
		s.fail(c, failure, err)
		return
	}
	c.JSON(http.StatusOK, output)
}

func (s *Server) processTurn(c *gin.Context) {
	var input processturn.Input
	if !s.bind(c, processturn.TaskType, &input) {
		return
	}

	result, err := s.turns.Execute(c.Request.Context(), &input)
	if err != nil {
		s.fail(c, "Error processing telehealth request", err)
		return
	}
	c.JSON(http.StatusOK, processturn.Output{TurnID: input.TurnID, TelehealthResult: result})
}

func (s *Server) evaluate(c *gin.Context) {
	var input evaluateresponse.Input
	if !s.bind(c, evaluateresponse.TaskType, &input) {
		return
	}

	output, err := s.evaluator.Execute(c.Request.Context(), &input)
	if err != nil {
		s.fail(c, "Error evaluating response", err)
		return
	}
	c.JSON(http.StatusOK, output.Evaluation)
}

// bind reads the body, checks it against the activity's input schema and
// decodes it into dst. It writes the error response and returns false on
// any failure.
func (s *Server) bind(c *gin.Context, taskType string, dst interface{}) bool {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": errBodyTooLarge,
				"limit": tooLarge.Limit,
			})
			return false
		}
		abortValidation(c, []string{fmt.Sprintf("body: %v", err)})
		return false
	}
	if !json.Valid(body) {
		abortValidation(c, []string{"body: invalid JSON"})
		return false
	}

	result, err := s.validator.ValidateJSON(taskType, body)
	if err != nil {
		s.logger.Error("schema validation unavailable", map[string]interface{}{
			"taskType": taskType,
			"error":    err.Error(),
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "schema validation unavailable"})
		return false
	}
	if !result.Valid {
		abortValidation(c, result.Messages())
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		abortValidation(c, []string{fmt.Sprintf("body: %v", err)})
		return false
	}
	return true
}

func abortValidation(c *gin.Context, details []string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"error":   errValidationFailed,
		"details": details,
	})
}

// fail maps an operation error onto a response. Invalid input the schema
// could not catch is still a 422.
func (s *Server) fail(c *gin.Context, prefix string, err error) {
	if stdErr, ok := apperrors.AsStandardError(err); ok && stdErr.Code == apperrors.ErrCodeInvalidInput {
		abortValidation(c, []string{describe(err)})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": fmt.Sprintf("%s: %s", prefix, describe(err)),
	})
}

func describe(err error) string {
	stdErr, ok := apperrors.AsStandardError(err)
	if !ok {
		return err.Error()
	}
	if stdErr.Details != "" {
		return stdErr.Message + ": " + stdErr.Details
	}
	return stdErr.Message
}
