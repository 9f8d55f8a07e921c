package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/kasir-app/apperrors"
	"github.com/yeremiapane/kasir-app/utils"
)

// respondAppError memetakan error domain ke status HTTP.
func respondAppError(c *gin.Context, log *logrus.Logger, err error) {
	if v, ok := apperrors.IsValidationError(err); ok {
		utils.RespondErrorData(c, http.StatusBadRequest, v, gin.H{"details": v.Details})
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if t, ok := apperrors.IsInvalidTransitionError(err); ok {
		utils.RespondErrorData(c, http.StatusConflict, t, gin.H{"from": t.From, "to": t.To})
		return
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		utils.RespondError(c, http.StatusConflict, err)
		return
	}

	log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("order_id"), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return 0, false
	}
	return uint(id), true
}
