package service

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/contactsapp/contacts-api/internal/birthday"
	"github.com/contactsapp/contacts-api/internal/config"
	"github.com/contactsapp/contacts-api/internal/model"
	"github.com/contactsapp/contacts-api/internal/store"
)

// Defaults and bounds for the URL parameters of the list and birthday endpoints.
const (
	defaultLimit = 20
	maxLimit     = 100
	defaultDays  = 7
	maxDays      = 365
)

// maxInt is the largest possible int value.
const maxInt = int(^uint(0) >> 1)

// phoneRuleName is the name of the custom phone validation registered on gin's
// binding validator.
const phoneRuleName = "phone"

// phonePattern accepts 7-20 characters of digits, spaces, parentheses, dots and
// dashes, with an optional leading +.
var phonePattern = regexp.MustCompile(`^\+?[0-9()\-.\s]{7,20}$`)

// Service carries the dependencies of the HTTP handlers: the persistence port, the
// process configuration, the application logger and the clock. The clock is a
// field so that tests can pin the reference date of the birthday window.
type Service struct {
	store  store.Store
	cfg    *config.Config
	logger *log.Logger
	now    func() time.Time
}

// New builds a Service and registers the custom payload validation rules on gin's
// binding validator.
func New(cfg *config.Config, st store.Store, logger *log.Logger) *Service {
	registerValidations()
	return &Service{
		store:  st,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetupHttpRouter initializes the REST API router and registers all endpoints.
func (s *Service) SetupHttpRouter() *gin.Engine {
	var router *gin.Engine
	if s.cfg.GinLogging {
		router = gin.Default()
	} else {
		router = gin.New()
		router.Use(gin.Recovery())
	}
	if len(s.cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
		}))
	}

	router.GET("/health", s.health)

	api := router.Group("/api")
	api.GET("/contacts", s.findContacts)
	api.POST("/contacts", s.createContact)
	api.GET("/contacts/upcoming-birthdays", s.upcomingBirthdays)
	api.GET("/contacts/:id", s.findContactByID)
	api.PUT("/contacts/:id", s.updateContactByID)
	api.PATCH("/contacts/:id", s.patchContactByID)
	api.DELETE("/contacts/:id", s.deleteContactByID)
	return router
}

// registerValidations installs the phone rule on gin's validator and makes
// validation errors report JSON field names instead of Go struct field names.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation(phoneRuleName, func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// health responds with the service status and version.
func (s *Service) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": s.cfg.AppVersion})
}

// findContacts responds with a page of contacts as JSON.
//
// The URL parameter 'q' searches case-insensitively for a substring of the first
// name, the last name, or the email address; any one match qualifies. When 'q' is
// given, the field-specific parameters are ignored.
//
// The URL parameters 'first_name', 'last_name' and 'email' each match a
// case-insensitive substring of their field; all given parameters must match.
//
// The URL parameter 'limit' (1-100, default 20) caps how many matches are
// returned, and 'offset' (default 0) skips that many matches first. The response
// wraps the page together with the total number of matches.
//
// REST API calls:
//
//	> curl "http://localhost:8080/api/contacts"
//	> curl "http://localhost:8080/api/contacts?q=john"
//	> curl "http://localhost:8080/api/contacts?first_name=Ji&last_name=Smi"
//	> curl "http://localhost:8080/api/contacts?limit=20&offset=60"
func (s *Service) findContacts(c *gin.Context) {
	filter := store.Filter{
		Q:         c.Query("q"),
		FirstName: c.Query("first_name"),
		LastName:  c.Query("last_name"),
		Email:     c.Query("email"),
	}
	limit, ok := parseIntParam(c, "limit", defaultLimit, 1, maxLimit)
	if !ok {
		return
	}
	offset, ok := parseIntParam(c, "offset", 0, 0, maxInt)
	if !ok {
		return
	}
	contacts, total, err := s.store.List(filter, limit, offset)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"items":  contacts,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// upcomingBirthdays responds with the contacts whose next birthday falls within
// the coming 'days' days (1-365, default 7), including today and the final day.
// Results are ordered by the next occurrence of the birthday; each entry carries
// that date as 'next_birthday'.
//
// REST API calls:
//
//	> curl "http://localhost:8080/api/contacts/upcoming-birthdays"
//	> curl "http://localhost:8080/api/contacts/upcoming-birthdays?days=30"
func (s *Service) upcomingBirthdays(c *gin.Context) {
	days, ok := parseIntParam(c, "days", defaultDays, 1, maxDays)
	if !ok {
		return
	}
	contacts, err := s.store.All()
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, birthday.UpcomingWithin(contacts, s.now(), days))
}

// createContact inserts the contact specified in the request's JSON into the
// database. It responds with the full contact data including the newly assigned
// id. A duplicate email address is rejected with a conflict.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"first_name": "Hans", "last_name": "Wurst", "email": "hans@example.com", "phone": "+49 0815 4711", "birthday": "1969-03-02"}'
func (s *Service) createContact(c *gin.Context) {
	input, ok := bindContactInput(c)
	if !ok {
		return
	}
	contact, err := s.store.Create(input)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, contact)
}

// findContactByID locates the contact whose ID value matches the id parameter of
// the request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56
func (s *Service) findContactByID(c *gin.Context) {
	id, ok := parseId(c)
	if !ok {
		return
	}
	contact, err := s.store.Get(id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// updateContactByID replaces every field of the contact whose ID value matches the
// id parameter of the request URL and responds with the new version of the
// contact. All writable fields must be present in the JSON.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "PUT" --include --header "Content-Type: application/json" --data '{"first_name": "Erika", "last_name": "Mustermann", "email": "erika@example.com", "phone": "+49 0815 4711", "birthday": "1972-06-06"}'
func (s *Service) updateContactByID(c *gin.Context) {
	id, ok := parseId(c)
	if !ok {
		return
	}
	input, ok := bindContactInput(c)
	if !ok {
		return
	}
	contact, err := s.store.UpdateFull(id, input)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// patchContactByID updates the values specified in the JSON (and only those) on
// the contact whose ID value matches the id parameter of the request URL, and
// finally responds with the new version of the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "PATCH" --include --header "Content-Type: application/json" --data '{"phone": "+420 815 4711"}'
func (s *Service) patchContactByID(c *gin.Context) {
	id, ok := parseId(c)
	if !ok {
		return
	}
	var patch model.ContactPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondInvalidPayload(c, err)
		return
	}
	contact, err := s.store.UpdatePartial(id, patch)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByID deletes the contact whose ID value matches the id parameter of
// the request URL from the database.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "DELETE"
func (s *Service) deleteContactByID(c *gin.Context) {
	id, ok := parseId(c)
	if !ok {
		return
	}
	if err := s.store.Delete(id); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parseId inspects the id parameter of the request URL. A non-numeric id can never
// match a stored contact, so it is answered with NOT FOUND.
func parseId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid id parameter"})
		return 0, false
	}
	return id, true
}

// parseIntParam inspects an integer URL parameter and enforces its bounds.
func parseIntParam(c *gin.Context, name string, fallback, lower, upper int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < lower || value > upper {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
			gin.H{"message": "invalid " + name + " parameter"})
		return 0, false
	}
	return value, true
}

// bindContactInput binds and validates the full-contact payload used by POST and
// PUT requests.
func bindContactInput(c *gin.Context) (model.ContactInput, bool) {
	var input model.ContactInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondInvalidPayload(c, err)
		return model.ContactInput{}, false
	}
	return input, true
}

// respondInvalidPayload maps a binding failure to an UNPROCESSABLE ENTITY response
// with per-field detail where the validator provides it.
func respondInvalidPayload(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]string, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields[fieldErr.Field()] = validationMessage(fieldErr)
		}
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
			gin.H{"message": "validation failed", "fields": fields})
		return
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
		gin.H{"message": "invalid JSON payload"})
}

// validationMessage renders a human-readable reason for a single field failure.
func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fieldErr.Param() + " characters long"
	case "max":
		return "must be at most " + fieldErr.Param() + " characters long"
	case phoneRuleName:
		return "must be 7-20 characters containing digits, spaces, parentheses, dots, dashes, and an optional leading +"
	default:
		return "is invalid"
	}
}

// respondStoreError maps a store failure to the matching HTTP status. Unexpected
// backend errors are logged and surface as a generic server error.
func (s *Service) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
	case errors.Is(err, store.ErrDuplicateEmail):
		c.AbortWithStatusJSON(http.StatusConflict,
			gin.H{"message": "a contact with this email already exists"})
	default:
		s.logger.Error("database failure", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"message": "internal server error"})
	}
}
