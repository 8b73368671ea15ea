package handlers

import (
	"net/http"
	"strings"

	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ShareLinkHandler struct {
	BaseHandler
	shareService services.ShareLinkService
}

func NewShareLinkHandler(shareService services.ShareLinkService, logger utils.Logger) *ShareLinkHandler {
	return &ShareLinkHandler{
		BaseHandler:  NewBaseHandler(logger),
		shareService: shareService,
	}
}

// CreateShareLink issues a viewer link for a quiz
// @Summary Create share link
// @Tags share-links
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param request body services.CreateShareLinkRequest false "Limits"
// @Success 201 {object} services.ShareLinkResponse
// @Router /quizzes/{id}/share-links [post]
func (h *ShareLinkHandler) CreateShareLink(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateShareLinkRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
			return
		}
	}

	link, err := h.shareService.Create(c.Request.Context(), quizID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

// ListShareLinks lists the links of a quiz
// @Summary List share links
// @Tags share-links
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {array} services.ShareLinkResponse
// @Router /quizzes/{id}/share-links [get]
func (h *ShareLinkHandler) ListShareLinks(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	links, err := h.shareService.List(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

// RevokeShareLink deactivates a link
// @Summary Revoke share link
// @Tags share-links
// @Param id path string true "Quiz ID"
// @Param link_id path string true "Share link ID"
// @Success 204
// @Router /quizzes/{id}/share-links/{link_id} [delete]
func (h *ShareLinkHandler) RevokeShareLink(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quizID, ok := ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	linkID, ok := ParseUUIDParam(c, "link_id")
	if !ok {
		return
	}

	if err := h.shareService.Revoke(c.Request.Context(), quizID, linkID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ValidateShareLink previews what a token grants
// @Summary Validate share link
// @Tags share-links
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} services.ShareLinkInfo
// @Router /share-links/{token} [get]
func (h *ShareLinkHandler) ValidateShareLink(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))

	info, err := h.shareService.Validate(c.Request.Context(), token)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// RedeemShareLink grants the caller viewer access
// @Summary Redeem share link
// @Tags share-links
// @Produce json
// @Param token path string true "Share token"
// @Success 200 {object} services.RedeemResponse
// @Failure 410 {object} ErrorResponse
// @Router /share-links/{token}/redeem [post]
func (h *ShareLinkHandler) RedeemShareLink(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	token := strings.TrimSpace(c.Param("token"))

	h.LogRequest(c, "Redeeming share link")
	resp, err := h.shareService.Redeem(c.Request.Context(), token, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
