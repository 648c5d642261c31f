package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"shelterflow/animal"
	"shelterflow/auth"
	"shelterflow/center"
	"shelterflow/specie"
)

// Server wires the domain services to the HTTP surface. Read endpoints are
// public; every mutation requires a bearer token.
type Server struct {
	mux *http.ServeMux

	authService   *auth.Service
	animalService *animal.Service
	specieService *specie.Service
	centerService *center.Service
}

// NewServer builds the router over the provided services.
func NewServer(authSvc *auth.Service, animalSvc *animal.Service, specieSvc *specie.Service, centerSvc *center.Service) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		authService:   authSvc,
		animalService: animalSvc,
		specieService: specieSvc,
		centerService: centerSvc,
	}

	s.mux.HandleFunc("/api/register", s.handleRegister)
	s.mux.HandleFunc("/api/login", s.handleLogin)
	s.mux.Handle("/api/animals", s.withBearer(http.HandlerFunc(s.handleAnimals)))
	s.mux.Handle("/api/animals/", s.withBearer(http.HandlerFunc(s.handleAnimal)))
	s.mux.HandleFunc("/api/centers", s.handleCenters)
	s.mux.HandleFunc("/api/centers/", s.handleCenter)
	s.mux.Handle("/api/species", s.withBearer(http.HandlerFunc(s.handleSpecies)))
	s.mux.HandleFunc("/api/species/", s.handleSpecie)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// withBearer validates the Authorization header when present and stores the
// verified center id in the request context. Requests without a header pass
// through; handlers that mutate reject them via requireCenter.
func (s *Server) withBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		centerID, err := s.authService.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		log.Printf("%s %s center=%s", r.Method, r.URL.Path, centerID)
		next.ServeHTTP(w, r.WithContext(auth.ContextWithCenterID(r.Context(), centerID)))
	})
}

// requireCenter extracts the authenticated center id or reports 401.
func requireCenter(w http.ResponseWriter, r *http.Request) (string, bool) {
	centerID, ok := auth.CenterIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing or invalid token")
		return "", false
	}
	return centerID, true
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}

// pathID extracts the trailing id segment from prefix-routed paths.
func pathID(path, prefix string) string {
	id := strings.TrimPrefix(path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req auth.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Login == "" || req.Password == "" || req.Address == "" {
		writeError(w, http.StatusBadRequest, "name, login, password and address are required")
		return
	}

	if _, err := s.authService.Register(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateLogin):
			writeError(w, http.StatusConflict, "This login is already in use")
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		default:
			s.internalError(w, "register", err)
		}
		return
	}

	writeMessage(w, "Center registered successfully")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req auth.LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "login and password are required")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		s.internalError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		AccessToken string `json:"access_token"`
	}{AccessToken: result.Token})
}

type animalResponse struct {
	ID          string  `json:"id"`
	CenterID    string  `json:"center_id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Age         int     `json:"age"`
	Specie      string  `json:"specie"`
	Price       float64 `json:"price"`
}

func toAnimalResponse(v animal.View) animalResponse {
	return animalResponse{
		ID:          v.ID,
		CenterID:    v.CenterID,
		Name:        v.Name,
		Description: v.Description,
		Age:         v.Age,
		Specie:      v.Specie,
		Price:       v.Price,
	}
}

type createAnimalRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Age         *int     `json:"age"`
	Specie      string   `json:"specie"`
	Price       *float64 `json:"price"`
}

type updateAnimalRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Age         *int     `json:"age"`
	Specie      *string  `json:"specie"`
	Price       *float64 `json:"price"`
}

func (s *Server) handleAnimals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		views, err := s.animalService.List(r.Context())
		if err != nil {
			s.internalError(w, "list animals", err)
			return
		}
		items := make([]animalResponse, 0, len(views))
		for _, v := range views {
			items = append(items, toAnimalResponse(v))
		}
		writeJSON(w, http.StatusOK, struct {
			Animals []animalResponse `json:"animals"`
		}{Animals: items})

	case http.MethodPost:
		centerID, ok := requireCenter(w, r)
		if !ok {
			return
		}

		var req createAnimalRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "No name specified or it's not valid. (name:str)")
			return
		}
		if req.Age == nil || *req.Age < 0 {
			writeError(w, http.StatusBadRequest, "No age specified or it's not valid. (age:int)")
			return
		}
		if req.Specie == "" {
			writeError(w, http.StatusBadRequest, "No specie specified or it's not valid. (specie:id)")
			return
		}

		_, err := s.animalService.Create(r.Context(), centerID, animal.CreateParams{
			Name:        req.Name,
			Description: req.Description,
			Age:         *req.Age,
			Specie:      req.Specie,
			Price:       req.Price,
		})
		if err != nil {
			if errors.Is(err, animal.ErrSpecieNotFound) {
				writeError(w, http.StatusConflict, "Specified specie does not exist")
				return
			}
			s.internalError(w, "create animal", err)
			return
		}

		writeMessage(w, "Animal added successfully")

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleAnimal(w http.ResponseWriter, r *http.Request) {
	animalID := pathID(r.URL.Path, "/api/animals/")
	if animalID == "" {
		writeError(w, http.StatusBadRequest, "Invalid animal id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		view, err := s.animalService.Get(r.Context(), animalID)
		if err != nil {
			if errors.Is(err, animal.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Animal not found")
				return
			}
			s.internalError(w, "get animal", err)
			return
		}
		writeJSON(w, http.StatusOK, toAnimalResponse(view))

	case http.MethodPut:
		centerID, ok := requireCenter(w, r)
		if !ok {
			return
		}

		var req updateAnimalRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Age != nil && *req.Age < 0 {
			writeError(w, http.StatusBadRequest, "No age specified or it's not valid. (age:int)")
			return
		}

		patch := animal.UpdatePatch{
			Name:        req.Name,
			Description: req.Description,
			Age:         req.Age,
			Specie:      req.Specie,
			Price:       req.Price,
		}
		if patch.IsEmpty() {
			writeError(w, http.StatusBadRequest, "No update fields specified")
			return
		}

		if err := s.animalService.Update(r.Context(), centerID, animalID, patch); err != nil {
			switch {
			case errors.Is(err, animal.ErrNotFound):
				writeError(w, http.StatusNotFound, "Animal not found")
			case errors.Is(err, animal.ErrNotOwner):
				writeError(w, http.StatusForbidden, "You are not allowed to update this animal")
			case errors.Is(err, animal.ErrSpecieNotFound):
				writeError(w, http.StatusConflict, "Specified specie does not exist")
			default:
				s.internalError(w, "update animal", err)
			}
			return
		}

		writeMessage(w, "Animal updated successfully")

	case http.MethodDelete:
		centerID, ok := requireCenter(w, r)
		if !ok {
			return
		}

		if err := s.animalService.Delete(r.Context(), centerID, animalID); err != nil {
			switch {
			case errors.Is(err, animal.ErrNotFound):
				writeError(w, http.StatusNotFound, "Animal not found")
			case errors.Is(err, animal.ErrNotOwner):
				writeError(w, http.StatusForbidden, "You are not allowed to delete this animal")
			default:
				s.internalError(w, "delete animal", err)
			}
			return
		}

		writeMessage(w, "Animal deleted successfully")

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

type centerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type animalRefResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Specie string `json:"specie"`
}

func (s *Server) handleCenters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	profiles, err := s.centerService.List(r.Context(), 100)
	if err != nil {
		s.internalError(w, "list centers", err)
		return
	}

	items := make([]centerResponse, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, centerResponse{ID: p.ID, Name: p.Name})
	}
	writeJSON(w, http.StatusOK, struct {
		Centers []centerResponse `json:"centers"`
	}{Centers: items})
}

func (s *Server) handleCenter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	centerID := pathID(r.URL.Path, "/api/centers/")
	if centerID == "" {
		writeError(w, http.StatusBadRequest, "Invalid center id")
		return
	}

	detail, err := s.centerService.GetByID(r.Context(), centerID)
	if err != nil {
		if errors.Is(err, center.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Center not found")
			return
		}
		s.internalError(w, "get center", err)
		return
	}

	animals := make([]animalRefResponse, 0, len(detail.Animals))
	for _, a := range detail.Animals {
		animals = append(animals, animalRefResponse{ID: a.ID, Name: a.Name, Specie: a.Specie})
	}
	writeJSON(w, http.StatusOK, struct {
		Center centerDetailResponse `json:"center"`
	}{Center: centerDetailResponse{ID: detail.ID, Name: detail.Name, Animals: animals}})
}

type centerDetailResponse struct {
	ID      string              `json:"id"`
	Name    string              `json:"name"`
	Animals []animalRefResponse `json:"animals"`
}

type createSpecieRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
}

type specieSummaryResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AnimalsCount int    `json:"animals_count"`
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		summaries, err := s.specieService.List(r.Context())
		if err != nil {
			s.internalError(w, "list species", err)
			return
		}
		items := make([]specieSummaryResponse, 0, len(summaries))
		for _, sum := range summaries {
			items = append(items, specieSummaryResponse{
				ID:           sum.ID,
				Name:         sum.Name,
				AnimalsCount: sum.AnimalsCount,
			})
		}
		writeJSON(w, http.StatusOK, struct {
			Species []specieSummaryResponse `json:"species"`
		}{Species: items})

	case http.MethodPost:
		if _, ok := requireCenter(w, r); !ok {
			return
		}

		var req createSpecieRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "No name specified or it's not valid. (name:str)")
			return
		}
		if req.Description == "" {
			writeError(w, http.StatusBadRequest, "No description specified or it's not valid. (description:str)")
			return
		}
		if req.Price == nil || *req.Price < 0 {
			writeError(w, http.StatusBadRequest, "No price specified or it's not valid. (price:float)")
			return
		}

		if _, err := s.specieService.Create(r.Context(), specie.CreateParams{
			Name:        req.Name,
			Description: req.Description,
			Price:       *req.Price,
		}); err != nil {
			s.internalError(w, "create specie", err)
			return
		}

		writeMessage(w, "Specie added successfully")

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleSpecie(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	specieID := pathID(r.URL.Path, "/api/species/")
	if specieID == "" {
		writeError(w, http.StatusBadRequest, "Invalid specie id")
		return
	}

	detail, err := s.specieService.Get(r.Context(), specieID)
	if err != nil {
		if errors.Is(err, specie.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Specie not found")
			return
		}
		s.internalError(w, "get specie", err)
		return
	}

	animals := make([]animalRefResponse, 0, len(detail.Animals))
	for _, a := range detail.Animals {
		animals = append(animals, animalRefResponse{ID: a.ID, Name: a.Name, Specie: a.Specie})
	}
	writeJSON(w, http.StatusOK, struct {
		Specie specieDetailResponse `json:"specie"`
	}{Specie: specieDetailResponse{
		ID:          detail.ID,
		Name:        detail.Name,
		Description: detail.Description,
		Price:       detail.Price,
		Animals:     animals,
	}})
}

type specieDetailResponse struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       float64             `json:"price"`
	Animals     []animalRefResponse `json:"animals"`
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
