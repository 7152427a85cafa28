package handlers

import (
	"net/http"

	"chatshot/internal/chat"
	"chatshot/internal/httpkit"
	"chatshot/internal/pkg/errors"
	"chatshot/internal/render"
)

// GenerateRequest is the wire shape the video pipeline sends.
// img_size is [height, width], matching the pipeline's convention.
type GenerateRequest struct {
	Messages     []chat.IncomingMessage `json:"messages"`
	Participants []string               `json:"participants"`
	OutputDir    string                 `json:"outputDir"`
	ImgSize      []int                  `json:"img_size"`
}

// GenerateResponse is the wire shape the pipeline consumes. A single
// conversation yields one image, delivered as a one-element imagePaths
// list for compatibility with multi-image consumers.
type GenerateResponse struct {
	Success            bool              `json:"success"`
	ImagePaths         []string          `json:"imagePaths"`
	MessageCoordinates []chat.Coordinate `json:"messageCoordinates"`
	Message            string            `json:"message,omitempty"`
}

// generateFailure is the error shape the pipeline checks: success plus a
// flat error string and machine-readable code.
type generateFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// GenerateScreenshots renders a conversation and returns the capture path
// plus per-message coordinates.
func (h *Handler) GenerateScreenshots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	var req GenerateRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		writeGenerateErr(w, errors.Validation("invalid json body"))
		return
	}

	if len(req.Participants) != 2 {
		writeGenerateErr(w, errors.ValidationField("participants", "exactly two participants are required"))
		return
	}
	if len(req.ImgSize) != 0 && len(req.ImgSize) != 2 {
		writeGenerateErr(w, errors.ValidationField("img_size", "img_size must be [height, width]"))
		return
	}

	rreq := render.Request{
		Messages:     req.Messages,
		Participants: [2]string{req.Participants[0], req.Participants[1]},
		OutputDir:    req.OutputDir,
	}
	if len(req.ImgSize) == 2 {
		rreq.Height = req.ImgSize[0]
		rreq.Width = req.ImgSize[1]
	}

	resp, err := h.svc.Generate(ctx, rreq)
	if err != nil {
		log.Error("screenshot generation failed", "error", err)
		writeGenerateErr(w, err)
		return
	}

	httpkit.WriteJSON(w, http.StatusOK, GenerateResponse{
		Success:            true,
		ImagePaths:         []string{resp.ImagePath},
		MessageCoordinates: resp.Coordinates,
		Message:            "screenshots generated",
	})
}

func writeGenerateErr(w http.ResponseWriter, err error) {
	httpkit.WriteJSON(w, errors.GetHTTPStatus(err), generateFailure{
		Success: false,
		Error:   err.Error(),
		Code:    string(errors.GetCode(err)),
	})
}
