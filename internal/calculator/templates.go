package calculator

import (
	"semestercalc/internal/logging"
	"semestercalc/internal/registry"
)

// CreateTemplateFromHistory captures a history's rows as a reusable
// template with scores cleared. Fails when the template collection is
// at capacity.
func (c *Calculator) CreateTemplateFromHistory(historyID string, details registry.TemplateDetails) (registry.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.store.CreateTemplateFromHistory(historyID, details, c.maxTemplates)
	if t == nil {
		return registry.Template{}, false
	}
	logging.Registry("Created template %q from history %q", t.ID, historyID)
	c.scheduleStore()
	return registry.CloneTemplate(*t), true
}

// DeleteTemplate removes a template. Histories instantiated from it
// keep their lineage id.
func (c *Calculator) DeleteTemplate(templateID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.DeleteTemplate(templateID) {
		return false
	}
	logging.Registry("Deleted template %q", templateID)
	c.scheduleStore()
	return true
}

// UpdateTemplate applies a partial metadata edit.
func (c *Calculator) UpdateTemplate(templateID string, updates registry.TemplateUpdates) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.store.UpdateTemplate(templateID, updates) {
		return false
	}
	c.scheduleStore()
	return true
}
