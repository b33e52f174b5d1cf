package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Plan, Client, Equipment, MaintenanceRecord and Payment mirror the API
// request bodies.
type Plan struct {
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	DurationMonths int     `json:"duration_months"`
	Active         bool    `json:"active"`
}

type Client struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	PlanID string `json:"plan_id"`
	DueDay int    `json:"due_day"`
	Active bool   `json:"active"`
}

type Equipment struct {
	Name                    string `json:"name"`
	Category                string `json:"category"`
	LastMaintenanceDate     string `json:"last_maintenance_date,omitempty"`
	MaintenanceIntervalDays int    `json:"maintenance_interval_days"`
}

type MaintenanceRecord struct {
	ServiceType string `json:"service_type"`
	ServiceDate string `json:"service_date"`
	Description string `json:"description"`
}

type Payment struct {
	ClientID string  `json:"client_id"`
	Amount   float64 `json:"amount"`
	Method   string  `json:"method"`
}

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Eduarda", "Felipe", "Gabriela", "Henrique", "Isabela", "João"}
	lastNames  = []string{"Silva", "Santos", "Oliveira", "Souza", "Lima", "Pereira", "Costa", "Almeida"}
	machines   = []Equipment{
		{Name: "Esteira", Category: "cardio", MaintenanceIntervalDays: 30},
		{Name: "Bicicleta ergométrica", Category: "cardio", MaintenanceIntervalDays: 45},
		{Name: "Elíptico", Category: "cardio", MaintenanceIntervalDays: 45},
		{Name: "Leg press", Category: "strength", MaintenanceIntervalDays: 60},
		{Name: "Supino", Category: "strength", MaintenanceIntervalDays: 90},
		{Name: "Cross over", Category: "strength", MaintenanceIntervalDays: 60},
		{Name: "Halteres", Category: "free_weights", MaintenanceIntervalDays: 180},
		{Name: "Colchonetes", Category: "accessory"},
	}
)

// apiClient talks to the gym API with an optional bearer token.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *apiClient) authorizedPost(path string, body interface{}, out interface{}) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("POST %s failed with status: %d", path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// create posts body and returns the id of the created row.
func (c *apiClient) create(path string, body interface{}) (string, error) {
	var result map[string]interface{}
	if _, err := c.authorizedPost(path, body, &result); err != nil {
		return "", err
	}
	id, ok := result["id"].(string)
	if !ok {
		return "", fmt.Errorf("invalid id in %s response", path)
	}
	return id, nil
}

// login registers the gym owner, falling back to a login when the account
// already exists.
func (c *apiClient) login(username, password, gymName string) error {
	var resp struct {
		Token string `json:"token"`
	}
	code, err := c.authorizedPost("/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
		"gym_name": gymName,
	}, &resp)
	if code == http.StatusConflict {
		_, err = c.authorizedPost("/auth/login", map[string]string{"username": username, "password": password}, &resp)
	}
	if err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func randomName(r *rand.Rand) string {
	return firstNames[r.Intn(len(firstNames))] + " " + lastNames[r.Intn(len(lastNames))]
}

// maintenanceDate spreads the last maintenance so every status tier shows up:
// some long overdue, some inside the warning window and some recent.
func maintenanceDate(r *rand.Rand, now time.Time, interval int) string {
	if interval <= 0 {
		return ""
	}
	ago := r.Intn(interval * 2)
	return now.AddDate(0, 0, -ago).Format("2006-01-02")
}

func seed(api *apiClient, r *rand.Rand, clients int, now time.Time) error {
	plans := []Plan{
		{Name: "Mensal", Price: 99.90, DurationMonths: 1, Active: true},
		{Name: "Trimestral", Price: 269.90, DurationMonths: 3, Active: true},
		{Name: "Anual", Price: 899.90, DurationMonths: 12, Active: true},
	}
	planIDs := make([]string, 0, len(plans))
	for _, p := range plans {
		id, err := api.create("/plans", p)
		if err != nil {
			return fmt.Errorf("create plan %s: %w", p.Name, err)
		}
		planIDs = append(planIDs, id)
		log.WithFields(log.Fields{"plan_id": id, "name": p.Name}).Info("Created plan")
	}

	for _, m := range machines {
		m.LastMaintenanceDate = maintenanceDate(r, now, m.MaintenanceIntervalDays)
		id, err := api.create("/equipment", m)
		if err != nil {
			log.WithError(err).WithField("name", m.Name).Error("Failed to create equipment")
			continue
		}
		log.WithFields(log.Fields{"equipment_id": id, "name": m.Name, "last_maintenance": m.LastMaintenanceDate}).Info("Created equipment")
		if m.LastMaintenanceDate != "" {
			rec := MaintenanceRecord{ServiceType: "preventive", ServiceDate: m.LastMaintenanceDate, Description: "Revisão periódica"}
			if _, err := api.authorizedPost("/equipment/"+id+"/maintenance", rec, nil); err != nil {
				log.WithError(err).WithField("equipment_id", id).Error("Failed to log maintenance")
			}
		}
	}

	for i := 0; i < clients; i++ {
		plan := r.Intn(len(plans))
		c := Client{
			Name:   randomName(r),
			Phone:  fmt.Sprintf("119%08d", r.Intn(100000000)),
			PlanID: planIDs[plan],
			DueDay: 1 + r.Intn(28),
			Active: r.Intn(10) > 0,
		}
		id, err := api.create("/clients", c)
		if err != nil {
			log.WithError(err).WithField("name", c.Name).Error("Failed to create client")
			continue
		}
		// Roughly two thirds of the members are up to date.
		if r.Intn(3) > 0 {
			if _, err := api.create("/payments", Payment{ClientID: id, Amount: plans[plan].Price, Method: "pix"}); err != nil {
				log.WithError(err).WithField("client_id", id).Error("Failed to record payment")
			}
		}
		log.WithFields(log.Fields{"client_id": id, "name": c.Name}).Info("Created client")
	}
	return nil
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	clients := 20
	if val := os.Getenv("SEED_CLIENTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n >= 0 {
			clients = n
		}
	}
	username := os.Getenv("SEED_USERNAME")
	if username == "" {
		username = "demo"
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "demo-password"
	}

	log.WithFields(log.Fields{"api_url": apiURL, "clients": clients, "username": username}).Info("Seeding demo gym")

	api := newAPIClient(apiURL)
	if err := api.login(username, password, "Academia Demo"); err != nil {
		log.WithError(err).Fatal("Failed to authenticate")
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	if err := seed(api, r, clients, time.Now()); err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
	log.Info("Seeding finished")
}
