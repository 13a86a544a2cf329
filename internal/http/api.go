package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Mile24/social-media-backend/internal/domain"
	"github.com/Mile24/social-media-backend/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	posts     service.PostService
	users     service.UserService
	jwtSecret string
	uploadDir string
	logger    logrus.FieldLogger
}

func NewHandler(posts service.PostService, users service.UserService, jwtSecret, uploadDir string, logger logrus.FieldLogger) *Handler {
	return &Handler{
		posts:     posts,
		users:     users,
		jwtSecret: jwtSecret,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if h.uploadDir != "" {
		router.Static("/uploads", h.uploadDir)
	}

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/forgot-password", h.forgotPassword)
		auth.POST("/reset-password/:token", h.resetPassword)
	}

	posts := api.Group("/posts")
	{
		posts.POST("/create", h.createPost)
		posts.GET("", h.listPosts)
		posts.PUT("/like/:postId", h.likePost)
		posts.POST("/comment/:postId", h.commentPost)
		posts.DELETE("/:postId", h.deletePost)
	}

	users := api.Group("/users")
	{
		users.GET("/me", AuthRequired(h.jwtSecret), h.me)
		users.GET("/:id", h.getUser)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) createPost(c *gin.Context) {
	userID := c.PostForm("userId")
	caption := c.PostForm("caption")
	imageURL := c.PostForm("imageUrl")

	in := service.CreatePostInput{
		UserID:   userID,
		Caption:  caption,
		ImageURL: imageURL,
	}

	if fileHeader, err := c.FormFile("image"); err == nil {
		contentType := fileHeader.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only images are allowed"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
			return
		}
		defer file.Close()

		in.Upload = &service.MediaUpload{
			Filename:    fileHeader.Filename,
			ContentType: contentType,
			Body:        file,
		}
	}

	post, err := h.posts.CreatePost(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, "create post", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "post": post})
}

func (h *Handler) listPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		h.writeError(c, "list posts", err)
		return
	}
	if posts == nil {
		posts = []domain.Post{}
	}

	c.JSON(http.StatusOK, posts)
}

type likeRequest struct {
	UserID string `json:"userId"`
}

func (h *Handler) likePost(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.ToggleLike(c.Request.Context(), c.Param("postId"), req.UserID)
	if err != nil {
		h.writeError(c, "toggle like", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Like updated", "post": post})
}

type commentRequest struct {
	UserID string `json:"userId"`
	Text   string `json:"text"`
}

func (h *Handler) commentPost(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.AddComment(c.Request.Context(), c.Param("postId"), req.UserID, req.Text)
	if err != nil {
		h.writeError(c, "add comment", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment added", "post": post})
}

func (h *Handler) deletePost(c *gin.Context) {
	if err := h.posts.DeletePost(c.Request.Context(), c.Param("postId")); err != nil {
		h.writeError(c, "delete post", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profilePicture"`
	Visibility     string `json:"visibility"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
		Visibility:     req.Visibility,
	})
	if err != nil {
		h.writeError(c, "register", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user, "token": token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, "login", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": user, "token": token})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.writeError(c, "forgot password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset link sent to your email"})
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.users.ResetPassword(c.Request.Context(), c.Param("token"), req.NewPassword); err != nil {
		h.writeError(c, "reset password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.GetString("user_id"))
	if err != nil {
		h.writeError(c, "get me", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user.Profile()})
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognized
// is a server error, logged with context and surfaced without detail.
func (h *Handler) writeError(c *gin.Context, op string, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPostNotFound), errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"operation": op,
			"path":      c.FullPath(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
