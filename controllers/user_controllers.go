package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/repository"
	"github.com/yeremiapane/kasir-app/utils"
	"golang.org/x/crypto/bcrypt"
)

type UserController struct {
	staff  *repository.StaffRepository
	tokens *utils.TokenManager
	log    *logrus.Logger
}

func NewUserController(staff *repository.StaffRepository, tokens *utils.TokenManager, logger *logrus.Logger) *UserController {
	return &UserController{staff: staff, tokens: tokens, log: logger}
}

// Login staff -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	staff, err := uc.staff.FindByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
			return
		}
		respondAppError(c, uc.log, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(staff.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := uc.tokens.GenerateToken(staff.ID, staff.Ref, staff.Role)
	if err != nil {
		respondAppError(c, uc.log, err)
		return
	}

	uc.log.WithFields(logrus.Fields{"email": staff.Email, "role": staff.Role}).Info("Login successful")

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": staff.Role,
		"staff_ref": staff.Ref,
		"name":      staff.Name,
	})
}
