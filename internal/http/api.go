package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-api/internal/domain"
	"blog-api/internal/service"
	"blog-api/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth    service.AuthService
	posts   service.PostService
	tokens  service.TokenService
	storage storage.Service
	bucket  string
	prefix  string
	logger  *logrus.Logger
}

func NewHandler(auth service.AuthService, posts service.PostService, tokens service.TokenService, store storage.Service, bucket, prefix string, logger *logrus.Logger) *Handler {
	return &Handler{
		auth:    auth,
		posts:   posts,
		tokens:  tokens,
		storage: store,
		bucket:  bucket,
		prefix:  prefix,
		logger:  logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	if h.logger != nil {
		router.Use(requestLogger(h.logger))
	}

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.signup)
			auth.POST("/login", h.login)
			auth.GET("/me", requireAuth(h.tokens), h.me)
		}

		blogs := api.Group("/blogs")
		{
			blogs.GET("", optionalAuth(h.tokens), h.listBlogs)
			blogs.POST("", requireAuth(h.tokens), h.createBlog)
			blogs.PUT("/:id", requireAuth(h.tokens), h.updateBlog)
			blogs.DELETE("/:id", requireAuth(h.tokens), h.deleteBlog)
			blogs.POST("/:id/like", requireAuth(h.tokens), h.toggleLike)
		}

		api.GET("/backups", requireAuth(h.tokens), h.listBackups)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type PostResponse struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	AuthorID   int64  `json:"author_id"`
	AuthorName string `json:"author_name"`
	LikeCount  int    `json:"like_count"`
	LikedByMe  bool   `json:"liked_by_me"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type BackupResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userToResponse(user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	token, user, err := h.auth.Login(c.Request.Context(), identifier, req.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userToResponse(user),
	})
}

// me returns the account behind the presented token.
func (h *Handler) me(c *gin.Context) {
	identity := identityFrom(c)

	user, err := h.auth.GetByID(c.Request.Context(), identity.UserID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) listBlogs(c *gin.Context) {
	var viewerID int64
	if identity := identityFrom(c); identity != nil {
		viewerID = identity.UserID
	}

	views, err := h.posts.List(c.Request.Context(), viewerID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	resp := make([]PostResponse, len(views))
	for i := range views {
		resp[i] = postToResponse(views[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createBlog(c *gin.Context) {
	identity := identityFrom(c)

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.posts.Create(c.Request.Context(), identity.UserID, identity.Username, req.Title, req.Content)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, postToResponse(*view))
}

func (h *Handler) updateBlog(c *gin.Context) {
	identity := identityFrom(c)

	id, ok := postID(c)
	if !ok {
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.posts.Update(c.Request.Context(), identity.UserID, id, req.Title, req.Content)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, postToResponse(*view))
}

func (h *Handler) deleteBlog(c *gin.Context) {
	identity := identityFrom(c)

	id, ok := postID(c)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), identity.UserID, id); err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) toggleLike(c *gin.Context) {
	identity := identityFrom(c)

	id, ok := postID(c)
	if !ok {
		return
	}

	view, err := h.posts.ToggleLike(c.Request.Context(), identity.UserID, id)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, postToResponse(*view))
}

func (h *Handler) listBackups(c *gin.Context) {
	if h.storage == nil || h.bucket == "" {
		c.JSON(http.StatusOK, []BackupResponse{})
		return
	}

	objects, err := h.storage.ListObjects(c.Request.Context(), h.bucket, h.prefix)
	if err != nil {
		h.renderError(c, err)
		return
	}

	resp := make([]BackupResponse, len(objects))
	for i, obj := range objects {
		resp[i] = BackupResponse{
			Key:  obj.Key,
			Size: obj.Size,
		}
		if obj.LastModified != nil && !obj.LastModified.IsZero() {
			v := obj.LastModified.Format(time.RFC3339)
			resp[i].LastModified = &v
		}
	}
	c.JSON(http.StatusOK, resp)
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return id, true
}

// renderError translates domain errors into a stable status and message.
// Unexpected errors are logged with their cause and surface as an opaque 500.
func (h *Handler) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateUsername),
		errors.Is(err, domain.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		if h.logger != nil {
			h.logger.WithError(err).Error("request failed")
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func postToResponse(view domain.PostView) PostResponse {
	return PostResponse{
		ID:         view.ID,
		Title:      view.Title,
		Content:    view.Content,
		AuthorID:   view.AuthorID,
		AuthorName: view.AuthorName,
		LikeCount:  view.LikeCount,
		LikedByMe:  view.LikedByViewer,
		CreatedAt:  view.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  view.UpdatedAt.Format(time.RFC3339),
	}
}
