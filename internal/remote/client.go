// Package remote talks to a clinic API server over HTTP. The server runs the
// slot check and the write as one request, so the client never checks for
// conflicts itself. After every successful write it refetches the
// collections and republishes them to its Broadcaster.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/handler"
	"github.com/msomdec/clinic-booking/internal/service"
)

// Client is safe for concurrent use.
type Client struct {
	baseURL     string
	http        *http.Client
	broadcaster *service.Broadcaster

	mu    sync.RWMutex
	token string

	// refreshMu keeps publishes in fetch order.
	refreshMu sync.Mutex
}

type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 10s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBroadcaster makes the client republish fresh state after each write.
func WithBroadcaster(b *service.Broadcaster) Option {
	return func(c *Client) { c.broadcaster = b }
}

// WithToken starts the client with an existing session token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the server at baseURL, e.g. http://localhost:3333.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates and keeps the token for later requests.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var resp handler.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()

	user := userFromDTO(resp.UserDTO)
	return &user, nil
}

// Register creates a patient account. It does not log in.
func (c *Client) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	var dto handler.UserDTO
	body := map[string]string{"name": in.Name, "email": in.Email, "phone": in.Phone, "password": in.Password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &dto); err != nil {
		return nil, err
	}
	c.refresh(ctx)

	user := userFromDTO(dto)
	return &user, nil
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var dto handler.UserDTO
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &dto); err != nil {
		return nil, err
	}
	user := userFromDTO(dto)
	return &user, nil
}

// Logout forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return err
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var dtos []handler.UserDTO
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &dtos); err != nil {
		return nil, err
	}
	users := make([]domain.User, len(dtos))
	for i, dto := range dtos {
		users[i] = userFromDTO(dto)
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var dto handler.UserDTO
	if err := c.do(ctx, http.MethodGet, "/api/users/"+itoa(id), nil, &dto); err != nil {
		return nil, err
	}
	user := userFromDTO(dto)
	return &user, nil
}

func (c *Client) CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	req := handler.UserRequest{
		Name:            &in.Name,
		Email:           &in.Email,
		Phone:           &in.Phone,
		DoctorProfileID: in.DoctorProfileID,
	}
	if in.Role != "" {
		req.Role = &in.Role
	}
	if in.Password != "" {
		req.Password = &in.Password
	}

	var dto handler.UserDTO
	if err := c.do(ctx, http.MethodPost, "/api/users", req, &dto); err != nil {
		return nil, err
	}
	c.refresh(ctx)

	user := userFromDTO(dto)
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, changes domain.UserChanges) (*domain.User, error) {
	req := handler.UserRequest{
		Name:            changes.Name,
		Email:           changes.Email,
		Phone:           changes.Phone,
		Role:            changes.Role,
		Password:        changes.Password,
		DoctorProfileID: changes.DoctorProfileID,
	}

	var dto handler.UserDTO
	if err := c.do(ctx, http.MethodPut, "/api/users/"+itoa(id), req, &dto); err != nil {
		return nil, err
	}
	c.refresh(ctx)

	user := userFromDTO(dto)
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, "/api/users/"+itoa(id), nil, nil); err != nil {
		return err
	}
	c.refresh(ctx)
	return nil
}

func (c *Client) ListDoctors(ctx context.Context) ([]domain.Doctor, error) {
	var doctors []domain.Doctor
	if err := c.do(ctx, http.MethodGet, "/api/doctors", nil, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

func (c *Client) CreateDoctor(ctx context.Context, in domain.DoctorInput) (*domain.Doctor, error) {
	req := handler.DoctorRequest{Name: &in.Name, Specialty: &in.Specialty, Experience: &in.Experience}
	if in.Rating != nil {
		rating := handler.FlexFloat(*in.Rating)
		req.Rating = &rating
	}

	var doctor domain.Doctor
	if err := c.do(ctx, http.MethodPost, "/api/doctors", req, &doctor); err != nil {
		return nil, err
	}
	c.refresh(ctx)
	return &doctor, nil
}

func (c *Client) UpdateDoctor(ctx context.Context, id int64, changes domain.DoctorChanges) (*domain.Doctor, error) {
	req := handler.DoctorRequest{Name: changes.Name, Specialty: changes.Specialty, Experience: changes.Experience}
	if changes.Rating != nil {
		rating := handler.FlexFloat(*changes.Rating)
		req.Rating = &rating
	}

	var doctor domain.Doctor
	if err := c.do(ctx, http.MethodPut, "/api/doctors/"+itoa(id), req, &doctor); err != nil {
		return nil, err
	}
	c.refresh(ctx)
	return &doctor, nil
}

func (c *Client) DeleteDoctor(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, "/api/doctors/"+itoa(id), nil, nil); err != nil {
		return err
	}
	c.refresh(ctx)
	return nil
}

// ListAppointments mirrors GET /api/appointments?userId=.
func (c *Client) ListAppointments(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	path := "/api/appointments"
	if filter.UserID != nil {
		path += "?" + url.Values{"userId": {itoa(*filter.UserID)}}.Encode()
	}

	var appts []domain.Appointment
	if err := c.do(ctx, http.MethodGet, path, nil, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

func (c *Client) CreateAppointment(ctx context.Context, userID int64, in domain.AppointmentInput) (*domain.Appointment, error) {
	req := handler.AppointmentRequest{
		UserID:   &userID,
		DoctorID: &in.DoctorID,
		Date:     &in.Date,
		Time:     &in.Time,
		Reason:   &in.Reason,
	}
	if in.Status != "" {
		req.Status = &in.Status
	}
	return c.writeAppointment(ctx, http.MethodPost, "/api/appointments", req)
}

func (c *Client) UpdateAppointment(ctx context.Context, id int64, changes domain.AppointmentChanges) (*domain.Appointment, error) {
	req := handler.AppointmentRequest{
		UserID:   changes.UserID,
		DoctorID: changes.DoctorID,
		Date:     changes.Date,
		Time:     changes.Time,
		Reason:   changes.Reason,
		Status:   changes.Status,
	}
	return c.writeAppointment(ctx, http.MethodPut, "/api/appointments/"+itoa(id), req)
}

func (c *Client) CancelAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	return c.writeAppointment(ctx, http.MethodPost, "/api/appointments/"+itoa(id)+"/cancel", nil)
}

func (c *Client) DeleteAppointment(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, "/api/appointments/"+itoa(id), nil, nil); err != nil {
		return err
	}
	c.refresh(ctx)
	return nil
}

func (c *Client) writeAppointment(ctx context.Context, method, path string, body any) (*domain.Appointment, error) {
	var appt domain.Appointment
	if err := c.do(ctx, method, path, body, &appt); err != nil {
		return nil, err
	}
	c.refresh(ctx)
	return &appt, nil
}

// Refresh refetches doctors, appointments, and (when the server allows it)
// users, and publishes them to the broadcaster. Concurrent refreshes run one
// at a time, so an older fetch is never published over a newer one.
func (c *Client) Refresh(ctx context.Context) error {
	if c.broadcaster == nil {
		return nil
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	doctors, err := c.ListDoctors(ctx)
	if err != nil {
		return fmt.Errorf("refresh doctors: %w", err)
	}
	appts, err := c.ListAppointments(ctx, domain.AppointmentFilter{})
	if err != nil {
		return fmt.Errorf("refresh appointments: %w", err)
	}
	users, err := c.ListUsers(ctx)
	if err != nil {
		slog.Debug("refresh users", "error", err)
		users = nil
	}

	c.broadcaster.Publish(service.ViewState{Users: users, Doctors: doctors, Appointments: appts})
	return nil
}

// refresh runs after a successful write. A failed refresh is logged and never
// turns the write into a failure.
func (c *Client) refresh(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		slog.Warn("republish after write", "error", err)
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(method, path, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError turns an error response back into the domain error the server
// reported, so callers can use errors.Is as with the local services.
func decodeError(method, path string, resp *http.Response) error {
	var body handler.ErrorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)

	sentinel := sentinelFor(resp.StatusCode, body.Code)
	if body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}
	if sentinel == nil {
		return fmt.Errorf("%s %s: server returned %d: %s", method, path, resp.StatusCode, body.Message)
	}
	return fmt.Errorf("%s %s: %w (%s)", method, path, sentinel, body.Message)
}

// ErrRateLimited is returned when the server rejects a request with 429.
var ErrRateLimited = errors.New("rate limited")

var codeErrors = map[string]error{
	handler.CodeInvalidInput:      domain.ErrInvalidInput,
	handler.CodeNotFound:          domain.ErrNotFound,
	handler.CodeDuplicateEmail:    domain.ErrDuplicateEmail,
	handler.CodeSlotTaken:         domain.ErrSlotTaken,
	handler.CodeInvalidTransition: domain.ErrInvalidTransition,
	handler.CodeConflict:          domain.ErrConflict,
	handler.CodeUnauthorized:      domain.ErrUnauthorized,
	handler.CodeForbidden:         domain.ErrForbidden,
	handler.CodeRateLimited:       ErrRateLimited,
}

var statusErrors = map[int]error{
	http.StatusBadRequest:      domain.ErrInvalidInput,
	http.StatusNotFound:        domain.ErrNotFound,
	http.StatusConflict:        domain.ErrConflict,
	http.StatusUnauthorized:    domain.ErrUnauthorized,
	http.StatusForbidden:       domain.ErrForbidden,
	http.StatusTooManyRequests: ErrRateLimited,
}

func sentinelFor(status int, code string) error {
	if err, ok := codeErrors[code]; ok {
		return err
	}
	return statusErrors[status]
}

func userFromDTO(dto handler.UserDTO) domain.User {
	return domain.User{ID: dto.ID, Name: dto.Name, Email: dto.Email, Phone: dto.Phone, Role: dto.Role}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
