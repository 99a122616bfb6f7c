package upsot

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ParamsUpdate 局部更新，nil字段保持原值
type ParamsUpdate struct {
	MaxCount        *int     `json:"up_sots_count,omitempty"`
	Sensitivity     *float64 `json:"sensitivity,omitempty"`
	SortByRelevance *bool    `json:"sort_by_relevance,omitempty"`
}

// ValidationError 参数校验失败
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "参数校验失败: " + strings.Join(e.Problems, "; ")
}

// ParameterControls 维护当前的 up-sot 参数
type ParameterControls struct {
	mu       sync.RWMutex
	params   Params
	defaults Params
	validate *validator.Validate
}

// NewParameterControls 以给定默认值创建参数控制
func NewParameterControls(defaults Params) *ParameterControls {
	return &ParameterControls{
		params:   defaults,
		defaults: defaults,
		validate: validator.New(),
	}
}

// Get 当前参数
func (c *ParameterControls) Get() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// Set 应用局部更新，校验失败时保持原参数不变
func (c *ParameterControls) Set(update ParamsUpdate) (Params, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.params
	if update.MaxCount != nil {
		next.MaxCount = *update.MaxCount
	}
	if update.Sensitivity != nil {
		next.Sensitivity = *update.Sensitivity
	}
	if update.SortByRelevance != nil {
		next.SortByRelevance = *update.SortByRelevance
	}

	if err := c.validate.Struct(next); err != nil {
		return c.params, formatValidationErrors(err)
	}
	c.params = next
	return next, nil
}

// Reset 恢复默认参数
func (c *ParameterControls) Reset() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = c.defaults
	return c.params
}

func formatValidationErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("Field '%s' failed on the '%s' tag", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s (value: %s)", msg, fe.Param())
		}
		problems = append(problems, msg)
	}
	return &ValidationError{Problems: problems}
}
