// Package openf1 implements the session provider on top of the OpenF1 HTTP API
// (https://openf1.org). It builds season schedules from meetings and fully loaded
// race sessions from the laps, stints, weather and drivers endpoints.
//
// Responses can be persisted in a Cache so historical seasons are fetched once.
// Data that may still change is never cached: empty lists, meetings of the
// current or a future season, and sessions that started less than settlePeriod ago.
// Requests are attempted once; transport errors and non-200 statuses are returned
// to the caller.
package openf1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/samber/lo"

	"github.com/rewired-gh/racepace/internal/logger"
	"github.com/rewired-gh/racepace/internal/models"
)

// settlePeriod is how long after its start a session's data is treated as final.
const settlePeriod = 24 * time.Hour

// Cache stores raw response bodies keyed by request URL.
type Cache interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, body []byte) error
}

// Client provides access to the OpenF1 API
type Client struct {
	apiBaseURL string
	httpClient *http.Client
	cache      Cache
	now        func() time.Time

	mu        sync.Mutex
	schedules map[int][]models.Event
}

// Meeting represents a meeting (race weekend) from the OpenF1 API
type Meeting struct {
	MeetingKey       int    `json:"meeting_key"`
	MeetingName      string `json:"meeting_name"`
	OfficialName     string `json:"meeting_official_name"`
	Location         string `json:"location"`
	CountryName      string `json:"country_name"`
	CircuitShortName string `json:"circuit_short_name"`
	DateStart        string `json:"date_start"`
	Year             int    `json:"year"`
}

// Session represents a session from the OpenF1 API
type Session struct {
	SessionKey  int    `json:"session_key"`
	SessionName string `json:"session_name"`
	SessionType string `json:"session_type"`
	MeetingKey  int    `json:"meeting_key"`
	DateStart   string `json:"date_start"`
}

// Lap represents a lap from the OpenF1 API. LapDuration is null for untimed laps.
type Lap struct {
	DriverNumber int      `json:"driver_number"`
	LapNumber    int      `json:"lap_number"`
	LapDuration  *float64 `json:"lap_duration"`
	IsPitOutLap  bool     `json:"is_pit_out_lap"`
}

// Stint represents a tyre stint from the OpenF1 API
type Stint struct {
	DriverNumber int    `json:"driver_number"`
	StintNumber  int    `json:"stint_number"`
	LapStart     int    `json:"lap_start"`
	LapEnd       int    `json:"lap_end"`
	Compound     string `json:"compound"`
}

// Weather represents one weather sample from the OpenF1 API
type Weather struct {
	AirTemperature   *float64 `json:"air_temperature"`
	TrackTemperature *float64 `json:"track_temperature"`
	Humidity         *float64 `json:"humidity"`
}

// Driver represents a session participant from the OpenF1 API
type Driver struct {
	DriverNumber int    `json:"driver_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	NameAcronym  string `json:"name_acronym"`
	TeamName     string `json:"team_name"`
}

// NewClient creates a new OpenF1 client. cache may be nil to disable caching.
func NewClient(apiBaseURL string, timeout time.Duration, cache Cache) *Client {
	return &Client{
		apiBaseURL: strings.TrimRight(apiBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cache:     cache,
		now:       time.Now,
		schedules: make(map[int][]models.Event),
	}
}

// EventSchedule returns the season's events in calendar order. Testing meetings
// are included without a round number; championship rounds are numbered from 1.
// Meetings without a name are dropped.
func (c *Client) EventSchedule(ctx context.Context, season int) ([]models.Event, error) {
	c.mu.Lock()
	cached, ok := c.schedules[season]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	meetings, err := c.fetchMeetings(ctx, season)
	if err != nil {
		return nil, err
	}

	events := make([]models.Event, 0, len(meetings))
	round := 0
	for _, m := range meetings {
		date, err := parseTime(m.DateStart)
		if err != nil {
			return nil, fmt.Errorf("meeting %d: %w", m.MeetingKey, err)
		}
		event := models.Event{
			Key:  strconv.Itoa(m.MeetingKey),
			Name: strings.TrimSpace(m.MeetingName),
			Date: date,
		}
		if err := event.Validate(); err != nil {
			logger.Warn("Dropping meeting %d: %v", m.MeetingKey, err)
			continue
		}
		if !isTesting(m) {
			round++
			event.Round = omit.From(round)
		}
		events = append(events, event)
	}

	c.mu.Lock()
	c.schedules[season] = events
	c.mu.Unlock()

	return events, nil
}

// RaceSession resolves the session of the given kind for a season round and
// loads its laps, weather and drivers.
func (c *Client) RaceSession(ctx context.Context, season, round int, kind models.SessionKind) (*models.RaceSession, error) {
	events, err := c.EventSchedule(ctx, season)
	if err != nil {
		return nil, err
	}
	event, ok := lo.Find(events, func(e models.Event) bool {
		r, known := e.Round.Get()
		return known && r == round
	})
	if !ok {
		return nil, fmt.Errorf("%w: season %d has no round %d", models.ErrSessionNotFound, season, round)
	}

	session, err := c.findSession(ctx, event.Key, kind)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loading %s session %d for %s", kind, session.SessionKey, event.Name)

	start, err := parseTime(session.DateStart)
	if err != nil {
		logger.Debug("Session %d has no usable start time: %v", session.SessionKey, err)
	}
	settled := err == nil && c.now().Sub(start) >= settlePeriod

	loaded, err := c.loadSession(ctx, session.SessionKey, kind, settled)
	if err != nil {
		return nil, err
	}
	loaded.Date = start
	return loaded, nil
}

func (c *Client) fetchMeetings(ctx context.Context, season int) ([]Meeting, error) {
	var meetings []Meeting
	// The current season's calendar still grows and changes
	cacheable := season < c.now().UTC().Year()
	if err := c.getJSON(ctx, "meetings", url.Values{"year": {strconv.Itoa(season)}}, &meetings, cacheable); err != nil {
		return nil, fmt.Errorf("failed to fetch meetings: %w", err)
	}
	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].DateStart < meetings[j].DateStart
	})
	return meetings, nil
}

func (c *Client) findSession(ctx context.Context, meetingKey string, kind models.SessionKind) (Session, error) {
	var sessions []Session
	query := url.Values{"meeting_key": {meetingKey}, "session_name": {string(kind)}}
	if err := c.getJSON(ctx, "sessions", query, &sessions, true); err != nil {
		return Session{}, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	if len(sessions) == 0 {
		return Session{}, fmt.Errorf("%w: no %s session for meeting %s", models.ErrSessionNotFound, kind, meetingKey)
	}
	return sessions[0], nil
}

func (c *Client) loadSession(ctx context.Context, sessionKey int, kind models.SessionKind, cacheable bool) (*models.RaceSession, error) {
	query := url.Values{"session_key": {strconv.Itoa(sessionKey)}}

	var laps []Lap
	if err := c.getJSON(ctx, "laps", query, &laps, cacheable); err != nil {
		return nil, fmt.Errorf("failed to fetch laps: %w", err)
	}
	var stints []Stint
	if err := c.getJSON(ctx, "stints", query, &stints, cacheable); err != nil {
		return nil, fmt.Errorf("failed to fetch stints: %w", err)
	}
	var weather []Weather
	if err := c.getJSON(ctx, "weather", query, &weather, cacheable); err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}
	var drivers []Driver
	if err := c.getJSON(ctx, "drivers", query, &drivers, cacheable); err != nil {
		return nil, fmt.Errorf("failed to fetch drivers: %w", err)
	}

	return buildSession(kind, laps, stints, weather, drivers), nil
}

// buildSession assembles a domain session. Drivers are identified by their
// three-letter acronym, which is also the order driver groups appear in the
// season document; the car number is used when no acronym is known.
func buildSession(kind models.SessionKind, laps []Lap, stints []Stint, weather []Weather, drivers []Driver) *models.RaceSession {
	ids := make(map[int]string, len(drivers))
	session := &models.RaceSession{
		Kind:    kind,
		Weather: convertWeather(weather),
		Drivers: make(map[string]models.Driver, len(drivers)),
	}
	for _, d := range drivers {
		id := driverID(d.DriverNumber, d.NameAcronym)
		ids[d.DriverNumber] = id
		session.Drivers[id] = models.Driver{
			ID:        id,
			FirstName: d.FirstName,
			LastName:  d.LastName,
			Acronym:   d.NameAcronym,
			TeamName:  d.TeamName,
		}
	}

	session.Laps = convertLaps(laps, stints, ids)
	if len(laps) > 0 {
		session.TotalLaps = omit.From(lo.MaxBy(laps, func(a, b Lap) bool {
			return a.LapNumber > b.LapNumber
		}).LapNumber)
	}
	return session
}

func driverID(number int, acronym string) string {
	if acronym = strings.TrimSpace(acronym); acronym != "" {
		return acronym
	}
	return strconv.Itoa(number)
}

// convertLaps maps API laps onto domain laps, taking each lap's compound from
// the driver's stint that covers it.
func convertLaps(laps []Lap, stints []Stint, ids map[int]string) []models.Lap {
	byDriver := lo.GroupBy(stints, func(s Stint) int { return s.DriverNumber })

	result := make([]models.Lap, 0, len(laps))
	for _, l := range laps {
		compound := models.CompoundUnknown
		if stint, ok := lo.Find(byDriver[l.DriverNumber], func(s Stint) bool {
			return l.LapNumber >= s.LapStart && l.LapNumber <= s.LapEnd
		}); ok {
			compound = models.ParseCompound(stint.Compound)
		}

		id, ok := ids[l.DriverNumber]
		if !ok {
			id = strconv.Itoa(l.DriverNumber)
		}
		lap := models.Lap{
			DriverID: id,
			Compound: compound,
			Number:   l.LapNumber,
		}
		if l.LapDuration != nil {
			lap.Time = omit.From(time.Duration(math.Round(*l.LapDuration * float64(time.Second))))
		}
		result = append(result, lap)
	}
	return result
}

func convertWeather(samples []Weather) models.WeatherSamples {
	var w models.WeatherSamples
	for _, s := range samples {
		if s.AirTemperature != nil {
			w.AirTemperature = append(w.AirTemperature, *s.AirTemperature)
		}
		if s.TrackTemperature != nil {
			w.TrackTemperature = append(w.TrackTemperature, *s.TrackTemperature)
		}
		if s.Humidity != nil {
			w.Humidity = append(w.Humidity, *s.Humidity)
		}
	}
	return w
}

func isTesting(m Meeting) bool {
	return strings.Contains(strings.ToLower(m.MeetingName), "testing")
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// getJSON fetches an endpoint, serving and filling the cache, and decodes the body into out.
// Bodies are stored only when cacheable is set and the response is not an empty list.
func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, out interface{}, cacheable bool) error {
	u := fmt.Sprintf("%s/%s?%s", c.apiBaseURL, endpoint, query.Encode())

	if c.cache != nil {
		body, ok, err := c.cache.Get(u)
		if err != nil {
			logger.Warn("Cache read failed for %s: %v", u, err)
		} else if ok {
			logger.Debug("Cache hit: %s", u)
			return decode(body, out)
		}
	}

	body, err := c.doRequest(ctx, u)
	if err != nil {
		return err
	}
	if err := decode(body, out); err != nil {
		return err
	}

	if c.cache != nil && cacheable && !isEmptyList(body) {
		if err := c.cache.Put(u, body); err != nil {
			logger.Warn("Cache write failed for %s: %v", u, err)
		}
	}
	return nil
}

// isEmptyList reports whether body is an empty JSON array or null.
func isEmptyList(body []byte) bool {
	var items []json.RawMessage
	return json.Unmarshal(body, &items) == nil && len(items) == 0
}

func decode(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doRequest performs a single HTTP GET and returns the body of a 200 response
func (c *Client) doRequest(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
