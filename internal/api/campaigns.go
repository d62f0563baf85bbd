package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/adxhq/campaignd/internal/db"
	"github.com/adxhq/campaignd/internal/schema"
)

// handleCreateCampaign accepts a flat client campaign, canonicalizes it,
// persists it and publishes it to the bid engine.
func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var model schema.ClientCampaign
	if err := json.NewDecoder(r.Body).Decode(&model); err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign payload")
		return
	}
	// identity is server-assigned on create
	model.ID = ""
	model.CampaignID = ""
	model.Rev = 0

	c := s.Mapper.FromClient(&model)
	if err := s.Store.Insert(r.Context(), c); err != nil {
		s.Logger.Error("insert campaign failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store campaign")
		return
	}
	s.publish(r, c)

	stored, err := s.Store.Get(r.Context(), c.ID)
	if err != nil {
		s.Logger.Error("reload campaign failed", zap.String("campaign_id", c.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load campaign")
		return
	}
	writeJSON(w, http.StatusCreated, s.Mapper.ToClient(stored))
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c, err := s.Store.Get(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	if err != nil {
		s.Logger.Error("get campaign failed", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load campaign")
		return
	}
	writeJSON(w, http.StatusOK, s.Mapper.ToClient(c))
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	params := db.ListParams{}
	q := r.URL.Query()
	if v := q.Get("active"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active filter")
			return
		}
		params.Active = &n
	}
	if v := q.Get("user_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id filter")
			return
		}
		params.UserID = &n
	}
	if v := q.Get("limit"); v != "" {
		params.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		params.Offset, _ = strconv.Atoi(v)
	}

	campaigns, err := s.Store.List(r.Context(), params)
	if err != nil {
		s.Logger.Error("list campaigns failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list campaigns")
		return
	}

	out := make([]*schema.ClientCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, s.Mapper.ToClient(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{"campaigns": out})
}

// handleUpdateCampaign replaces a campaign's body, bumps its revision and
// republishes it.
func (s *Server) handleUpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	existing, err := s.Store.Get(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	if err != nil {
		s.Logger.Error("get campaign failed", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load campaign")
		return
	}

	var model schema.ClientCampaign
	if err := json.NewDecoder(r.Body).Decode(&model); err != nil {
		writeError(w, http.StatusBadRequest, "invalid campaign payload")
		return
	}
	model.ID = id
	model.Rev = existing.Rev + 1

	c := s.Mapper.FromClient(&model)
	c.CreatedAt = existing.CreatedAt
	if err := s.Store.Update(r.Context(), c); err != nil {
		s.Logger.Error("update campaign failed", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update campaign")
		return
	}
	s.publish(r, c)

	stored, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.Logger.Error("reload campaign failed", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load campaign")
		return
	}
	writeJSON(w, http.StatusOK, s.Mapper.ToClient(stored))
}

func (s *Server) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.Store.Delete(r.Context(), id); errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	} else if err != nil {
		s.Logger.Error("delete campaign failed", zap.String("campaign_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete campaign")
		return
	}
	if s.Publisher != nil {
		if err := s.Publisher.RemoveCampaign(r.Context(), id); err != nil {
			s.Logger.Error("withdraw campaign failed", zap.String("campaign_id", id), zap.Error(err))
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// publish pushes the campaign to the bid engine. Publication failures are
// logged, not surfaced; the row is already durable and the next update
// retries.
func (s *Server) publish(r *http.Request, c *schema.Campaign) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishCampaign(r.Context(), c); err != nil {
		s.Logger.Error("publish campaign failed", zap.String("campaign_id", c.ID), zap.Error(err))
	}
}
