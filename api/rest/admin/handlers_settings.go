package admin

import (
	stderrors "errors"
	"net/http"

	"codeberg.org/promptdeck/server/internal/errors"
	"codeberg.org/promptdeck/server/promptdeck/settings"
	"github.com/gin-gonic/gin"
)

func GetGeneralSettings(store SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		general, err := store.General(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to load general settings", err)
			return
		}

		c.JSON(http.StatusOK, general)
	}
}

func SaveGeneralSettings(store SettingsStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req settings.General
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if err := store.SaveGeneral(c.Request.Context(), req, c.GetString("user_id")); err != nil {
			errors.InternalError(c, "failed to save general settings", err)
			return
		}

		recordAudit(c, log, "settings.update", "settings", settings.KeyGeneral, map[string]any{
			"site_name":        req.SiteName,
			"default_language": req.DefaultLanguage,
			"signup_tokens":    req.SignupTokens,
			"maintenance_mode": req.MaintenanceMode,
		})

		c.JSON(http.StatusOK, req)
	}
}

func GetReferralSettings(store SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		referral, err := store.Referral(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to load referral settings", err)
			return
		}

		c.JSON(http.StatusOK, referral)
	}
}

func SaveReferralSettings(store SettingsStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req settings.Referral
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		err := store.SaveReferral(c.Request.Context(), req, c.GetString("user_id"))
		if stderrors.Is(err, settings.ErrInvalidReferral) {
			errors.BadRequest(c, err.Error(), nil)
			return
		}

		if err != nil {
			errors.InternalError(c, "failed to save referral settings", err)
			return
		}

		recordAudit(c, log, "settings.update", "settings", settings.KeyReferral, map[string]any{
			"enabled":                    req.Enabled,
			"default_commission_percent": req.DefaultCommissionPercent.String(),
			"max_earnings_per_referrer":  req.MaxEarningsPerReferrer.String(),
		})

		c.JSON(http.StatusOK, req)
	}
}

func GetSMTPSettings(store SettingsStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		smtp, ok, err := store.SMTP(c.Request.Context())
		if err != nil {
			errors.InternalError(c, "failed to load smtp settings", err)
			return
		}

		if !ok {
			c.JSON(http.StatusOK, SMTPSettingsResponse{Configured: false})
			return
		}

		c.JSON(http.StatusOK, SMTPSettingsResponse{
			Configured: true,
			Host:       smtp.Host,
			Port:       smtp.Port,
			Username:   smtp.Username,
			FromName:   smtp.FromName,
			FromEmail:  smtp.FromEmail,
		})
	}
}

func SaveSMTPSettings(store SettingsStore, log AuditLog) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req settings.SMTP
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if err := store.SaveSMTP(c.Request.Context(), req, c.GetString("user_id")); err != nil {
			errors.InternalError(c, "failed to save smtp settings", err)
			return
		}

		recordAudit(c, log, "settings.update", "settings", settings.KeySMTP, map[string]any{
			"host":       req.Host,
			"port":       req.Port,
			"from_email": req.FromEmail,
		})

		c.JSON(http.StatusOK, SMTPSettingsResponse{
			Configured: true,
			Host:       req.Host,
			Port:       req.Port,
			Username:   req.Username,
			FromName:   req.FromName,
			FromEmail:  req.FromEmail,
		})
	}
}
