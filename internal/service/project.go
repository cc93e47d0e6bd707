package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tobenna/launchpad/internal/domain"
	"github.com/tobenna/launchpad/internal/models"
	"github.com/tobenna/launchpad/internal/tradeapi"
)

// ProjectStore is the persistence contract of the project service.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjectsByUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error)
	ListAssignments(ctx context.Context, projectID uuid.UUID) ([]models.FundingAssignment, error)
}

// MetadataUploader pins token metadata and returns its URI.
type MetadataUploader interface {
	UploadMetadata(ctx context.Context, upload tradeapi.MetadataUpload) (string, error)
}

type ProjectService struct {
	store    ProjectStore
	uploader MetadataUploader
}

func NewProjectService(store ProjectStore, uploader MetadataUploader) *ProjectService {
	return &ProjectService{store: store, uploader: uploader}
}

func (s *ProjectService) Create(ctx context.Context, userID uuid.UUID, name, symbol, description string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if name == "" {
		return nil, fmt.Errorf("create project: name is required")
	}
	if symbol == "" {
		return nil, fmt.Errorf("create project: symbol is required")
	}
	project := &models.Project{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Symbol:      symbol,
		Description: description,
		Status:      domain.ProjectStatusDraft,
	}
	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return s.store.GetProject(ctx, id)
}

func (s *ProjectService) List(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	return s.store.ListProjectsByUser(ctx, userID)
}

func (s *ProjectService) Assignments(ctx context.Context, projectID uuid.UUID) ([]models.FundingAssignment, error) {
	return s.store.ListAssignments(ctx, projectID)
}

// SocialLinks are the optional links pinned with the token metadata.
type SocialLinks struct {
	Twitter  string `json:"twitter"`
	Telegram string `json:"telegram"`
	Website  string `json:"website"`
}

// UploadMetadata pins the project's display metadata and returns the URI to
// embed in the creation transaction.
func (s *ProjectService) UploadMetadata(ctx context.Context, projectID uuid.UUID, image []byte, imageName string, links SocialLinks) (string, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("upload metadata: %w", err)
	}
	uri, err := s.uploader.UploadMetadata(ctx, tradeapi.MetadataUpload{
		Name:        project.Name,
		Symbol:      project.Symbol,
		Description: project.Description,
		Twitter:     links.Twitter,
		Telegram:    links.Telegram,
		Website:     links.Website,
		ImageName:   imageName,
		Image:       image,
	})
	if err != nil {
		return "", fmt.Errorf("upload metadata: %w", err)
	}
	return uri, nil
}
