package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	userdomain "github.com/smallbiznis/teamdesk/internal/user/domain"
)

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.userSvc.Register(c.Request.Context(), userdomain.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID.String(),
		"username": user.Username,
		"email":    user.Email,
	})
}
