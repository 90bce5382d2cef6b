package wizard

import (
	"time"

	"github.com/aretw0/assetflow/pkg/domain"
)

func (c *Controller) emitStep(typ domain.EventType, from, to int, errs domain.FieldErrors) {
	if c.hooks.OnStep == nil {
		return
	}
	c.hooks.OnStep(&domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		Workflow:  c.workflow,
		From:      from,
		To:        to,
		Errors:    errs,
	})
}

func (c *Controller) emitFieldChange(field string, derived []string) {
	if c.hooks.OnFieldChange == nil {
		return
	}
	c.hooks.OnFieldChange(&domain.FieldEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFieldChange},
		Workflow:  c.workflow,
		Field:     field,
		Derived:   derived,
	})
}

func (c *Controller) emitSubmit(typ domain.EventType, phase domain.Phase, d time.Duration, err error) {
	hook := c.hooks.OnSubmitStart
	if typ == domain.EventSubmitResult {
		hook = c.hooks.OnSubmitResult
	}
	if hook == nil {
		return
	}
	hook(&domain.SubmitEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		Workflow:  c.workflow,
		Phase:     phase,
		Duration:  d,
		Err:       err,
	})
}
