// testserver/test_server.go
package testserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	consoleerrors "github.com/tvmsuite/console/errors"
	"github.com/tvmsuite/console/model"
	helper_util "github.com/tvmsuite/console/util/helper"
)

// ValidToken is the bearer token the fake backend accepts.
const ValidToken = "test-token-tvms"

// SMSRecord captures one send-sms call for assertions.
type SMSRecord struct {
	ViolationID string
	Message     string
}

// TestServer is an in-process fake of the TVMS backend REST API. It
// serves the real wire contract (success/data envelope, bearer auth,
// validation details lists) so client tests exercise the same
// decoding paths production traffic does.
type TestServer struct {
	Server *httptest.Server

	mu         sync.Mutex
	violations []model.Violation
	enforcers  []model.Enforcer
	settings   model.Settings
	offenders  []model.RepeatOffender

	requests    map[string]int
	smsMessages []SMSRecord

	// Behavior knobs for failure-path tests.
	RejectAuth     bool          // every authenticated route answers 401
	FailValidation bool          // writes answer 400 with a details list
	Latency        time.Duration // artificial delay per request
}

func New() *TestServer {
	gin.SetMode(gin.TestMode)
	ts := &TestServer{
		requests: make(map[string]int),
		settings: model.Settings{
			SystemName:         "TVMS",
			DefaultFineAmount:  500,
			SMSNotifications:   true,
			PenaltyReminders:   true,
			RepeatOffenderMin:  3,
			PaymentDeadlineDay: 15,
		},
	}
	ts.seed()
	ts.Server = httptest.NewServer(ts.router())
	return ts
}

func (ts *TestServer) URL() string { return ts.Server.URL }

func (ts *TestServer) Close() { ts.Server.Close() }

// RequestCount returns how many requests hit the given method+path,
// e.g. "GET /violations".
func (ts *TestServer) RequestCount(route string) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.requests[route]
}

// SMSMessages returns the send-sms calls received so far.
func (ts *TestServer) SMSMessages() []SMSRecord {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]SMSRecord(nil), ts.smsMessages...)
}

// Violations returns a copy of the current violation fixtures.
func (ts *TestServer) Violations() []model.Violation {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]model.Violation(nil), ts.violations...)
}

func (ts *TestServer) seed() {
	ts.violations = []model.Violation{
		{
			ID: "v1", ViolationNumber: "VN-2025-0001", ViolatorName: "Juan Dela Cruz",
			ViolatorLicense: "N01-11-123456", ViolatorPhone: "+639171234567",
			VehiclePlate: "ABC-1234", ViolationType: "No Helmet", FineAmount: 500,
			Status: model.StatusPending, EnforcerName: "R. Santos", EnforcerBadge: "B-001",
			Location: "EDSA cor. Shaw Blvd", CapturedAt: "12-4-25 14.30.00",
			IsRepeatOffender: true, PreviousViolationsCount: 3,
		},
		{
			ID: "v2", ViolationNumber: "VN-2025-0002", ViolatorName: "Maria Santos",
			ViolatorPhone: "+639179876543",
			VehiclePlate:  "XYZ-5678", ViolationType: "Illegal Parking", FineAmount: 1000,
			Status: model.StatusIssued, EnforcerName: "R. Santos", EnforcerBadge: "B-001",
			Location: "Ortigas Ave", CapturedAt: map[string]interface{}{"_seconds": float64(1700000000)},
		},
		{
			ID: "v3", ViolationNumber: "VN-2025-0003", ViolatorName: "Pedro Reyes",
			VehiclePlate: "DEF-9012", ViolationType: "Overspeeding", FineAmount: 2000,
			Status: model.StatusPaid, EnforcerName: "L. Garcia", EnforcerBadge: "B-002",
			Location: "C5 Libis", CapturedAt: "2025-01-15T09:45:30Z",
		},
	}
	ts.enforcers = []model.Enforcer{
		{ID: "e1", Username: "rsantos", Email: "rsantos@tvms.local", FullName: "R. Santos", BadgeNumber: "B-001", PhoneNumber: "+639170000001", IsActive: true},
		{ID: "e2", Username: "lgarcia", Email: "lgarcia@tvms.local", FullName: "L. Garcia", BadgeNumber: "B-002", PhoneNumber: "+639170000002", IsActive: false},
	}
	ts.offenders = []model.RepeatOffender{
		{ViolatorName: "Juan Dela Cruz", ViolatorLicense: "N01-11-123456", VehiclePlate: "ABC-1234", ViolationCount: 4, TotalFines: 3500, LastViolationAt: map[string]interface{}{"_seconds": float64(1700000000)}},
		{ViolatorName: "Ana Lim", VehiclePlate: "GHI-3456", ViolationCount: 3, TotalFines: 2400, LastViolationAt: "2025-02-01"},
	}
}

func (ts *TestServer) router() *gin.Engine {
	r := gin.New()
	r.Use(ts.track)

	r.POST("/auth/login", ts.login)

	authed := r.Group("/", ts.auth)
	{
		authed.POST("/auth/logout", ts.ok)
		authed.GET("/auth/me", ts.me)
		authed.PUT("/auth/change-password", ts.changePassword)

		authed.GET("/admin/dashboard", ts.dashboard)
		authed.GET("/admin/enforcers", ts.listEnforcers)
		authed.POST("/admin/enforcers", ts.createEnforcer)
		authed.PUT("/admin/enforcers/:id", ts.updateEnforcer)
		authed.DELETE("/admin/enforcers/:id", ts.deleteEnforcer)
		authed.GET("/admin/next-badge-number", ts.nextBadge)
		authed.GET("/admin/settings", ts.getSettings)
		authed.PUT("/admin/settings", ts.updateSettings)
		authed.GET("/admin/repeat-offenders", ts.repeatOffenders)

		authed.GET("/violations", ts.listViolations)
		authed.GET("/violations/stats/overview", ts.violationStats)
		authed.GET("/violations/export", ts.exportViolations)
		authed.POST("/violations", ts.createViolation)

		authed.GET("/reports/:type", ts.report)
	}

	// The by-id violation routes would collide with the static
	// stats/export paths in gin's tree, so they dispatch from the
	// fallback handler instead.
	r.NoRoute(ts.auth, ts.violationByID)
	return r
}

// violationByID serves /violations/{id} (GET, PUT, DELETE) and
// /violations/{id}/send-sms (POST).
func (ts *TestServer) violationByID(c *gin.Context) {
	path := strings.TrimPrefix(c.Request.URL.Path, "/violations/")
	if path == c.Request.URL.Path || path == "" {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "not found"})
		return
	}

	if id, ok := strings.CutSuffix(path, "/send-sms"); ok && c.Request.Method == http.MethodPost {
		ts.count("POST /violations/:id/send-sms")
		c.Params = gin.Params{{Key: "id", Value: id}}
		ts.sendSMS(c)
		return
	}
	if strings.Contains(path, "/") {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "not found"})
		return
	}

	c.Params = gin.Params{{Key: "id", Value: path}}
	switch c.Request.Method {
	case http.MethodGet:
		ts.count("GET /violations/:id")
		ts.getViolation(c)
	case http.MethodPut:
		ts.count("PUT /violations/:id")
		ts.updateViolation(c)
	case http.MethodDelete:
		ts.count("DELETE /violations/:id")
		ts.deleteViolation(c)
	default:
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "method not allowed"})
	}
}

func (ts *TestServer) count(route string) {
	ts.mu.Lock()
	ts.requests[route]++
	ts.mu.Unlock()
}

func (ts *TestServer) track(c *gin.Context) {
	ts.mu.Lock()
	ts.requests[c.Request.Method+" "+c.FullPath()]++
	latency := ts.Latency
	ts.mu.Unlock()
	if latency > 0 {
		time.Sleep(latency)
	}
	c.Next()
}

func (ts *TestServer) auth(c *gin.Context) {
	ts.mu.Lock()
	reject := ts.RejectAuth
	ts.mu.Unlock()

	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if reject || token != ValidToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or expired token"})
		return
	}
	c.Next()
}

func respond(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (ts *TestServer) ok(c *gin.Context) {
	respond(c, gin.H{})
}

func (ts *TestServer) validationFailure(c *gin.Context, details []consoleerrors.FieldError) bool {
	ts.mu.Lock()
	fail := ts.FailValidation
	ts.mu.Unlock()
	if !fail {
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "validation failed", "details": details})
	return true
}

func (ts *TestServer) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Email != "admin@tvms.local" || body.Password != "admin123" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid email or password"})
		return
	}
	respond(c, model.AuthPayload{
		Token: ValidToken,
		User:  model.User{ID: "u1", Email: body.Email, Role: model.RoleAdmin, DisplayName: "System Admin"},
	})
}

func (ts *TestServer) me(c *gin.Context) {
	respond(c, gin.H{"user": model.User{ID: "u1", Email: "admin@tvms.local", Role: model.RoleAdmin, DisplayName: "System Admin"}})
}

func (ts *TestServer) changePassword(c *gin.Context) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.CurrentPassword != "admin123" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "current password is incorrect"})
		return
	}
	if len(body.NewPassword) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false, "message": "validation failed",
			"details": []consoleerrors.FieldError{{Param: "newPassword", Msg: "password must be at least 8 characters"}},
		})
		return
	}
	respond(c, gin.H{})
}

func (ts *TestServer) dashboard(c *gin.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	stats := model.DashboardStats{ActiveEnforcers: 0, RepeatOffenders: len(ts.offenders)}
	for _, v := range ts.violations {
		stats.TotalViolations++
		stats.TotalFines += v.FineAmount
		switch v.Status {
		case model.StatusPending:
			stats.PendingViolations++
		case model.StatusPaid:
			stats.PaidViolations++
			stats.CollectedFines += v.FineAmount
		}
	}
	for _, e := range ts.enforcers {
		if e.IsActive {
			stats.ActiveEnforcers++
		}
	}
	respond(c, stats)
}

func (ts *TestServer) listViolations(c *gin.Context) {
	page, limit, err := helper_util.GetPageParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid pagination"})
		return
	}
	search := strings.ToLower(c.Query("search"))
	status := c.Query("status")

	ts.mu.Lock()
	defer ts.mu.Unlock()
	var filtered []model.Violation
	for _, v := range ts.violations {
		if status != "" && v.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(v.ViolatorName), search) &&
			!strings.Contains(strings.ToLower(v.VehiclePlate), search) &&
			!strings.Contains(strings.ToLower(v.ViolationNumber), search) {
			continue
		}
		filtered = append(filtered, v)
	}

	total := len(filtered)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	respond(c, model.ViolationPage{Violations: filtered[start:end], Total: total, Page: page, Limit: limit})
}

func (ts *TestServer) getViolation(c *gin.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, v := range ts.violations {
		if v.ID == c.Param("id") {
			respond(c, v)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "violation not found"})
}

func (ts *TestServer) createViolation(c *gin.Context) {
	var input model.ViolationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid violation data"})
		return
	}
	if ts.validationFailure(c, []consoleerrors.FieldError{{Param: "violator_name", Msg: "violator name is required"}}) {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	v := model.Violation{
		ID:              fmt.Sprintf("v%d", len(ts.violations)+1),
		ViolationNumber: fmt.Sprintf("VN-2025-%04d", len(ts.violations)+1),
		ViolatorName:    input.ViolatorName,
		ViolatorLicense: input.ViolatorLicense,
		ViolatorPhone:   input.ViolatorPhone,
		VehiclePlate:    input.VehiclePlate,
		ViolationType:   input.ViolationType,
		FineAmount:      input.FineAmount,
		Status:          model.StatusPending,
		Location:        input.Location,
		CapturedAt:      time.Now().UTC().Format(time.RFC3339),
		Notes:           input.Notes,
	}
	ts.violations = append(ts.violations, v)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": v})
}

func (ts *TestServer) updateViolation(c *gin.Context) {
	var input model.ViolationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid violation data"})
		return
	}
	if ts.validationFailure(c, []consoleerrors.FieldError{
		{Param: "fine_amount", Msg: "fine amount cannot be negative"},
		{Param: "status", Msg: "unknown status"},
	}) {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i, v := range ts.violations {
		if v.ID != c.Param("id") {
			continue
		}
		if input.Status != "" {
			v.Status = input.Status
		}
		if input.FineAmount != 0 {
			v.FineAmount = input.FineAmount
		}
		if input.Notes != "" {
			v.Notes = input.Notes
		}
		if input.ViolatorName != "" {
			v.ViolatorName = input.ViolatorName
		}
		ts.violations[i] = v
		respond(c, v)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "violation not found"})
}

func (ts *TestServer) deleteViolation(c *gin.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i, v := range ts.violations {
		if v.ID == c.Param("id") {
			ts.violations = append(ts.violations[:i], ts.violations[i+1:]...)
			respond(c, gin.H{})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "violation not found"})
}

func (ts *TestServer) violationStats(c *gin.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	stats := model.ViolationStats{ByStatus: make(map[string]int)}
	for _, v := range ts.violations {
		stats.Total++
		stats.ByStatus[v.Status]++
		stats.TotalFines += v.FineAmount
		if v.Status == model.StatusPaid {
			stats.PaidFines += v.FineAmount
		}
	}
	respond(c, stats)
}

func (ts *TestServer) exportViolations(c *gin.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	var sb strings.Builder
	sb.WriteString("violation_number,violator_name,vehicle_plate,status,fine_amount\n")
	for _, v := range ts.violations {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.2f\n", v.ViolationNumber, v.ViolatorName, v.VehiclePlate, v.Status, v.FineAmount))
	}
	c.Header("Content-Disposition", `attachment; filename="violations-export.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(sb.String()))
}

func (ts *TestServer) sendSMS(c *gin.Context) {
	var body struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "message is required"})
		return
	}
	ts.mu.Lock()
	ts.smsMessages = append(ts.smsMessages, SMSRecord{ViolationID: c.Param("id"), Message: body.Message})
	ts.mu.Unlock()
	respond(c, gin.H{"sent": true})
}

func (ts *TestServer) listEnforcers(c *gin.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	respond(c, gin.H{"enforcers": ts.enforcers})
}

func (ts *TestServer) createEnforcer(c *gin.Context) {
	var input model.EnforcerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid enforcer data"})
		return
	}
	if ts.validationFailure(c, []consoleerrors.FieldError{
		{Param: "username", Msg: "username already taken"},
		{Param: "email", Msg: "email is not valid"},
	}) {
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, e := range ts.enforcers {
		if e.Username == input.Username {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "enforcer conflict"})
			return
		}
	}
	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	e := model.Enforcer{
		ID:          fmt.Sprintf("e%d", len(ts.enforcers)+1),
		Username:    input.Username,
		Email:       input.Email,
		FullName:    input.FullName,
		BadgeNumber: input.BadgeNumber,
		PhoneNumber: input.PhoneNumber,
		IsActive:    active,
	}
	ts.enforcers = append(ts.enforcers, e)
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": e})
}

func (ts *TestServer) updateEnforcer(c *gin.Context) {
	var input model.EnforcerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid enforcer data"})
		return
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i, e := range ts.enforcers {
		if e.ID != c.Param("id") {
			continue
		}
		if input.Email != "" {
			e.Email = input.Email
		}
		if input.FullName != "" {
			e.FullName = input.FullName
		}
		if input.PhoneNumber != "" {
			e.PhoneNumber = input.PhoneNumber
		}
		if input.IsActive != nil {
			e.IsActive = *input.IsActive
		}
		ts.enforcers[i] = e
		respond(c, e)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "enforcer not found"})
}

func (ts *TestServer) deleteEnforcer(c *gin.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for i, e := range ts.enforcers {
		if e.ID == c.Param("id") {
			ts.enforcers = append(ts.enforcers[:i], ts.enforcers[i+1:]...)
			respond(c, gin.H{})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "enforcer not found"})
}

func (ts *TestServer) nextBadge(c *gin.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	respond(c, gin.H{"badge_number": fmt.Sprintf("B-%03d", len(ts.enforcers)+1)})
}

func (ts *TestServer) getSettings(c *gin.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	respond(c, ts.settings)
}

func (ts *TestServer) updateSettings(c *gin.Context) {
	var settings model.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid settings"})
		return
	}
	ts.mu.Lock()
	ts.settings = settings
	ts.mu.Unlock()
	respond(c, settings)
}

func (ts *TestServer) repeatOffenders(c *gin.Context) {
	min, _ := strconv.Atoi(c.DefaultQuery("min_violations", "3"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	ts.mu.Lock()
	defer ts.mu.Unlock()
	var filtered []model.RepeatOffender
	for _, o := range ts.offenders {
		if o.ViolationCount >= min {
			filtered = append(filtered, o)
		}
		if len(filtered) == limit {
			break
		}
	}
	respond(c, gin.H{"offenders": filtered})
}

func (ts *TestServer) report(c *gin.Context) {
	reportType := c.Param("type")
	switch reportType {
	case model.ReportViolations, model.ReportEnforcers, model.ReportDailySummary, model.ReportMonthly:
	default:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "unknown report type"})
		return
	}

	period := model.ReportPeriod{From: c.Query("date_from"), To: c.Query("date_to")}
	if period.From != "" || period.To != "" {
		period.Label = period.From + " to " + period.To
	} else if month := c.Query("month"); month != "" {
		period.Label = month + "/" + c.Query("year")
	} else if date := c.Query("date"); date != "" {
		period.Label = date
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	rep := model.Report{
		Type:   reportType,
		Period: period,
		Summary: []model.SummaryStat{
			{Label: "Total Violations", Value: strconv.Itoa(len(ts.violations))},
			{Label: "Total Fines", Value: "PHP 3,500.00"},
		},
		Columns: []string{"Violation #", "Violator", "Plate", "Status", "Fine"},
	}
	for _, v := range ts.violations {
		rep.Rows = append(rep.Rows, []string{
			v.ViolationNumber, v.ViolatorName, v.VehiclePlate, v.Status,
			strconv.FormatFloat(v.FineAmount, 'f', 2, 64),
		})
	}
	respond(c, rep)
}
