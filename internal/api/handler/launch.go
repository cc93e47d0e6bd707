package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/tobenna/launchpad/internal/models"
	"github.com/tobenna/launchpad/internal/service"
)

type LaunchHandler struct {
	projects     *service.ProjectService
	orchestrator *service.LaunchOrchestrator
}

func NewLaunchHandler(projects *service.ProjectService, orchestrator *service.LaunchOrchestrator) *LaunchHandler {
	return &LaunchHandler{projects: projects, orchestrator: orchestrator}
}

// Launch creates the token and executes the coordinated buys. If no
// metadata URI is supplied the handler pins the project's metadata first,
// with an optional base64 image and social links.
func (h *LaunchHandler) Launch(w http.ResponseWriter, r *http.Request) {
	project, err := h.ownedProject(w, r)
	if err != nil {
		return
	}

	var req struct {
		CreatorWalletID uuid.UUID           `json:"creator_wallet_id"`
		MetadataURI     string              `json:"metadata_uri"`
		ImageBase64     string              `json:"image_base64"`
		ImageName       string              `json:"image_name"`
		Links           service.SocialLinks `json:"links"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	if req.CreatorWalletID == uuid.Nil {
		RespondError(w, r, http.StatusBadRequest, "launch/missing-creator", "creator_wallet_id is required")
		return
	}

	metadataURI := req.MetadataURI
	if metadataURI == "" {
		var image []byte
		if req.ImageBase64 != "" {
			image, err = base64.StdEncoding.DecodeString(req.ImageBase64)
			if err != nil {
				RespondError(w, r, http.StatusBadRequest, "launch/invalid-image", "image_base64 is not valid base64")
				return
			}
		}
		metadataURI, err = h.projects.UploadMetadata(r.Context(), project.ID, image, req.ImageName, req.Links)
		if err != nil {
			RespondError(w, r, http.StatusBadGateway, "launch/metadata-upload-failed", err.Error())
			return
		}
	}

	result, err := h.orchestrator.Launch(r.Context(), project.ID, req.CreatorWalletID, metadataURI)
	if err != nil {
		h.respondLaunchError(w, r, result, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

func (h *LaunchHandler) respondLaunchError(w http.ResponseWriter, r *http.Request, result *models.BundleResult, err error) {
	var notReady *models.NotReadyError
	var precondition *models.PreconditionError
	var signing *models.SigningError

	switch {
	case errors.Is(err, models.ErrAlreadyLaunched):
		RespondError(w, r, http.StatusConflict, "launch/already-launched", err.Error())
	case errors.As(err, &notReady):
		RespondError(w, r, http.StatusConflict, "launch/not-ready", err.Error())
	case errors.As(err, &precondition):
		RespondError(w, r, http.StatusUnprocessableEntity, "launch/precondition-failed", err.Error())
	case errors.As(err, &signing):
		RespondError(w, r, http.StatusInternalServerError, "launch/signing-failed", err.Error())
	default:
		// Submission failures carry partial results worth returning.
		if result != nil {
			RespondJSON(w, http.StatusBadGateway, result)
			return
		}
		RespondError(w, r, http.StatusBadGateway, "launch/submission-failed", err.Error())
	}
}

func (h *LaunchHandler) ownedProject(w http.ResponseWriter, r *http.Request) (*models.Project, error) {
	actorID, err := requestActor(r)
	if err != nil {
		RespondError(w, r, http.StatusUnauthorized, "auth/invalid-context", err.Error())
		return nil, err
	}
	projectID, err := pathUUID(r, "id")
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-id", "Invalid project id")
		return nil, err
	}
	project, err := h.projects.Get(r.Context(), projectID)
	if err != nil || project.UserID != actorID {
		RespondError(w, r, http.StatusNotFound, "project/not-found", "Project not found")
		return nil, models.ErrProjectNotFound
	}
	return project, nil
}
