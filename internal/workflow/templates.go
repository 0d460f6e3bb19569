package workflow

import (
	"log/slog"
	"strings"
	"time"

	"github.com/josephgoksu/StoryWing/internal/memory"
	"github.com/josephgoksu/StoryWing/internal/story"
	"github.com/josephgoksu/StoryWing/internal/templates"
)

// TemplateRequest creates a custom template or replaces one's content.
type TemplateRequest struct {
	Name                        string   `json:"name" validate:"required,nonempty,max=100"`
	Description                 string   `json:"description"`
	Category                    string   `json:"category" validate:"max=50"`
	TitleTemplate               string   `json:"titleTemplate" validate:"required,nonempty"`
	DescriptionTemplate         string   `json:"descriptionTemplate"`
	AcceptanceCriteriaTemplates []string `json:"acceptanceCriteriaTemplates"`
	DefaultPriority             string   `json:"defaultPriority" validate:"priority"`
	Tags                        []string `json:"tags"`
}

// InstantiateRequest creates a story from a template.
type InstantiateRequest struct {
	PRDID         string            `json:"prdId"`
	WorkspacePath string            `json:"workspacePath"`
	Variables     map[string]string `json:"variables"`
}

// ensureSeeded stores the built-in catalog once per process. The insert
// ignores ids that already exist, so repeated seeding is harmless.
func (s *Service) ensureSeeded() error {
	if s.seeded.Load() {
		return nil
	}
	list, err := templates.BuiltIns()
	if err != nil {
		return err
	}
	n, err := s.store.SeedTemplates(list, s.now())
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("built-in templates seeded", "count", n)
	}
	s.seeded.Store(true)
	return nil
}

// ListTemplates returns built-ins first, then custom templates.
func (s *Service) ListTemplates() ([]templates.Template, error) {
	if err := s.ensureSeeded(); err != nil {
		return nil, err
	}
	return s.store.ListTemplates()
}

// GetTemplate returns one template.
func (s *Service) GetTemplate(id string) (*templates.Template, error) {
	if err := s.ensureSeeded(); err != nil {
		return nil, err
	}
	t, err := s.store.GetTemplate(id)
	if err != nil {
		return nil, storeErr(err, "template", id)
	}
	return t, nil
}

// CreateTemplate stores a custom template.
func (s *Service) CreateTemplate(req TemplateRequest) (*templates.Template, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	now := s.now()
	t := &templates.Template{ID: story.NewID("tmpl"), CreatedAt: now}
	applyTemplateRequest(t, req, now)
	if err := s.store.InsertTemplate(t); err != nil {
		return nil, err
	}
	slog.Info("template created", "id", t.ID, "name", t.Name)
	return t, nil
}

// UpdateTemplate replaces a custom template's content. Built-ins are
// immutable.
func (s *Service) UpdateTemplate(id string, req TemplateRequest) (*templates.Template, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	t, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	if t.IsBuiltIn {
		return nil, InvalidRequest("built-in template %s cannot be modified", id)
	}
	applyTemplateRequest(t, req, s.now())
	if err := s.store.UpdateTemplate(t); err != nil {
		return nil, storeErr(err, "template", id)
	}
	return t, nil
}

// DeleteTemplate removes a custom template. Built-ins cannot be deleted.
func (s *Service) DeleteTemplate(id string) error {
	t, err := s.GetTemplate(id)
	if err != nil {
		return err
	}
	if t.IsBuiltIn {
		return InvalidRequest("built-in template %s cannot be deleted", id)
	}
	if err := s.store.DeleteTemplate(id); err != nil {
		return storeErr(err, "template", id)
	}
	slog.Info("template deleted", "id", id)
	return nil
}

// InstantiateTemplate fills the template's placeholders from the request
// variables and appends the result as a new story, exactly like a story
// created by hand.
func (s *Service) InstantiateTemplate(id string, req InstantiateRequest) (*story.Story, error) {
	if req.PRDID == "" && strings.TrimSpace(req.WorkspacePath) == "" {
		return nil, InvalidRequest("either prdId or workspacePath is required")
	}
	t, err := s.GetTemplate(id)
	if err != nil {
		return nil, err
	}
	inst := t.Instantiate(req.Variables)
	if inst.Title == "" {
		return nil, InvalidRequest("template %s produced an empty title", id)
	}

	var created []story.Story
	err = s.store.WithTx(func(tx *memory.Tx) error {
		var err error
		created, err = s.appendStories(tx, req.PRDID, req.WorkspacePath, []draft{{
			Title:       inst.Title,
			Description: inst.Description,
			Criteria:    inst.AcceptanceCriteria,
			Priority:    inst.Priority,
		}})
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("story created from template", "template", id, "story", created[0].ID)
	return &created[0], nil
}

func applyTemplateRequest(t *templates.Template, req TemplateRequest, now time.Time) {
	t.Name = strings.TrimSpace(req.Name)
	t.Description = req.Description
	t.Category = strings.TrimSpace(req.Category)
	t.TitleTemplate = req.TitleTemplate
	t.DescriptionTemplate = req.DescriptionTemplate
	t.AcceptanceCriteriaTemplates = nonBlank(req.AcceptanceCriteriaTemplates)
	t.DefaultPriority = story.NormalizePriority(req.DefaultPriority, story.PriorityMedium)
	t.Tags = nonBlank(req.Tags)
	t.UpdatedAt = now
}
