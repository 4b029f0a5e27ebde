package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Wikid82/logtrackr/internal/models"
)

var registerValidators sync.Once

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() {
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("severity", func(fl validator.FieldLevel) bool {
			_, err := models.ParseSeverity(fl.Field().String())
			return err == nil
		})
	})
}
