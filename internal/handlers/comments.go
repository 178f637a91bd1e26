package handlers

import (
	"net/http"

	"secure_blog/internal/service"

	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Content string `json:"content" binding:"required" example:"Nice post"`
}

// @Summary      List comments of an article
// @Tags         comments
// @Produce      json
// @Param        id   path      int  true  "Article ID"
// @Success      200  {array}   models.Comment
// @Failure      404  {object}  map[string]string
// @Router       /api/articles/{id}/comments [get]
func (h *Handler) listComments(c *gin.Context) {
	articleID, ok := pathID(c)
	if !ok {
		return
	}
	comments, err := h.services.Comments.ListByArticle(c.Request.Context(), articleID)
	if err != nil {
		h.respondError(c, "comments_list_failed", err, "article_id", articleID)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// @Summary      Comment on an article
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        id    path      int             true  "Article ID"
// @Param        body  body      commentRequest  true  "Comment"
// @Success      201   {object}  map[string]interface{}  "message, comment"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/articles/{id}/comments [post]
// @Security     BearerAuth
func (h *Handler) createComment(c *gin.Context) {
	articleID, ok := pathID(c)
	if !ok {
		return
	}
	var input commentRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	cm, err := h.services.Comments.Create(c.Request.Context(), identityFrom(c), articleID, service.CommentInput{
		Content: input.Content,
	})
	if err != nil {
		h.respondError(c, "comment_create_failed", err, "article_id", articleID)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "comment created", "comment": cm})
}

// @Summary      Get comment
// @Tags         comments
// @Produce      json
// @Param        id   path      int  true  "Comment ID"
// @Success      200  {object}  models.Comment
// @Failure      404  {object}  map[string]string
// @Router       /api/comments/{id} [get]
func (h *Handler) getComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cm, err := h.services.Comments.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "comment_get_failed", err, "comment_id", id)
		return
	}
	c.JSON(http.StatusOK, cm)
}

// @Summary      Delete comment
// @Description  Admin only.
// @Tags         comments
// @Produce      json
// @Param        id   path      int  true  "Comment ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/comments/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.services.Comments.Delete(c.Request.Context(), identityFrom(c), id); err != nil {
		h.respondError(c, "comment_delete_failed", err, "comment_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
