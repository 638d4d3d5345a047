// Package memory provides a mutex-guarded in-memory record store with the
// same lookup semantics as the PostgreSQL store. It backs the service tests
// and the server's STORE_DRIVER=memory mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/IlTetta/Climate-Monitoring-App/internal/models"
	"github.com/IlTetta/Climate-Monitoring-App/internal/query"
	"github.com/IlTetta/Climate-Monitoring-App/internal/repository"
)

type state struct {
	cities    map[int64]models.City
	operators map[int64]models.Operator
	centers   map[int64]models.Center
	weather   []models.Weather

	nextOperatorID int64
	nextCenterID   int64
	nextWeatherID  int64
}

func newState() *state {
	return &state{
		cities:         make(map[int64]models.City),
		operators:      make(map[int64]models.Operator),
		centers:        make(map[int64]models.Center),
		nextOperatorID: 1,
		nextCenterID:   1,
		nextWeatherID:  1,
	}
}

func (s *state) clone() *state {
	c := &state{
		cities:         make(map[int64]models.City, len(s.cities)),
		operators:      make(map[int64]models.Operator, len(s.operators)),
		centers:        make(map[int64]models.Center, len(s.centers)),
		weather:        make([]models.Weather, len(s.weather)),
		nextOperatorID: s.nextOperatorID,
		nextCenterID:   s.nextCenterID,
		nextWeatherID:  s.nextWeatherID,
	}
	for id, v := range s.cities {
		c.cities[id] = v
	}
	for id, v := range s.operators {
		c.operators[id] = v
	}
	for id, v := range s.centers {
		c.centers[id] = copyCenter(v)
	}
	for i, w := range s.weather {
		c.weather[i] = copyWeather(w)
	}
	return c
}

// Store is an in-memory repository.Store. Transactions hold the write lock
// for their whole duration, so they are serialized against every other call.
type Store struct {
	mu    sync.RWMutex
	state *state
}

var _ repository.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{state: newState()}
}

// WithinTx runs fn with exclusive access, restoring the previous state if fn fails
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&txView{state: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// HealthCheck always succeeds
func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func (s *Store) write(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *Store) GetCity(ctx context.Context, id int64) (city *models.City, err error) {
	err = s.read(func(st *state) error {
		city, err = st.getCity(id)
		return err
	})
	return city, err
}

func (s *Store) FindCities(ctx context.Context, conditions ...models.Condition) (cities []*models.City, err error) {
	err = s.read(func(st *state) error {
		cities, err = st.findCities(conditions)
		return err
	})
	return cities, err
}

func (s *Store) CreateCitiesBatch(ctx context.Context, cities []*models.City) (n int, err error) {
	err = s.write(func(st *state) error {
		n = st.createCitiesBatch(cities)
		return nil
	})
	return n, err
}

func (s *Store) UpdateCity(ctx context.Context, city *models.City) error {
	return s.write(func(st *state) error { return st.updateCity(city) })
}

func (s *Store) GetOperator(ctx context.Context, id int64) (op *models.Operator, err error) {
	err = s.read(func(st *state) error {
		op, err = st.getOperator(id)
		return err
	})
	return op, err
}

func (s *Store) FindOperators(ctx context.Context, conditions ...models.Condition) (ops []*models.Operator, err error) {
	err = s.read(func(st *state) error {
		ops, err = st.findOperators(conditions)
		return err
	})
	return ops, err
}

func (s *Store) CreateOperator(ctx context.Context, op *models.Operator) error {
	return s.write(func(st *state) error { return st.createOperator(op) })
}

func (s *Store) UpdateOperator(ctx context.Context, op *models.Operator) error {
	return s.write(func(st *state) error { return st.updateOperator(op) })
}

func (s *Store) GetCenter(ctx context.Context, id int64) (c *models.Center, err error) {
	err = s.read(func(st *state) error {
		c = st.getCenter(id)
		return nil
	})
	return c, err
}

func (s *Store) FindCenters(ctx context.Context, conditions ...models.Condition) (centers []*models.Center, err error) {
	err = s.read(func(st *state) error {
		centers, err = st.findCenters(conditions)
		return err
	})
	return centers, err
}

func (s *Store) ListCenters(ctx context.Context) (centers []*models.Center, err error) {
	err = s.read(func(st *state) error {
		centers = st.listCenters()
		return nil
	})
	return centers, err
}

func (s *Store) CreateCenter(ctx context.Context, c *models.Center) error {
	return s.write(func(st *state) error { return st.createCenter(c) })
}

func (s *Store) UpdateCenter(ctx context.Context, c *models.Center) error {
	return s.write(func(st *state) error { return st.updateCenter(c) })
}

func (s *Store) GetWeather(ctx context.Context, id int64) (w *models.Weather, err error) {
	err = s.read(func(st *state) error {
		w, err = st.getWeather(id)
		return err
	})
	return w, err
}

func (s *Store) FindWeather(ctx context.Context, conditions ...models.Condition) (records []*models.Weather, err error) {
	err = s.read(func(st *state) error {
		records, err = st.findWeather(conditions)
		return err
	})
	return records, err
}

func (s *Store) CreateWeather(ctx context.Context, w *models.Weather) error {
	return s.write(func(st *state) error { return st.createWeather(w) })
}

// txView exposes the state directly; the owning WithinTx already holds the lock
type txView struct {
	state *state
}

func (t *txView) GetCity(ctx context.Context, id int64) (*models.City, error) {
	return t.state.getCity(id)
}

func (t *txView) FindCities(ctx context.Context, conditions ...models.Condition) ([]*models.City, error) {
	return t.state.findCities(conditions)
}

func (t *txView) CreateCitiesBatch(ctx context.Context, cities []*models.City) (int, error) {
	return t.state.createCitiesBatch(cities), nil
}

func (t *txView) UpdateCity(ctx context.Context, city *models.City) error {
	return t.state.updateCity(city)
}

func (t *txView) GetOperator(ctx context.Context, id int64) (*models.Operator, error) {
	return t.state.getOperator(id)
}

func (t *txView) FindOperators(ctx context.Context, conditions ...models.Condition) ([]*models.Operator, error) {
	return t.state.findOperators(conditions)
}

func (t *txView) CreateOperator(ctx context.Context, op *models.Operator) error {
	return t.state.createOperator(op)
}

func (t *txView) UpdateOperator(ctx context.Context, op *models.Operator) error {
	return t.state.updateOperator(op)
}

func (t *txView) GetCenter(ctx context.Context, id int64) (*models.Center, error) {
	return t.state.getCenter(id), nil
}

func (t *txView) FindCenters(ctx context.Context, conditions ...models.Condition) ([]*models.Center, error) {
	return t.state.findCenters(conditions)
}

func (t *txView) ListCenters(ctx context.Context) ([]*models.Center, error) {
	return t.state.listCenters(), nil
}

func (t *txView) CreateCenter(ctx context.Context, c *models.Center) error {
	return t.state.createCenter(c)
}

func (t *txView) UpdateCenter(ctx context.Context, c *models.Center) error {
	return t.state.updateCenter(c)
}

func (t *txView) GetWeather(ctx context.Context, id int64) (*models.Weather, error) {
	return t.state.getWeather(id)
}

func (t *txView) FindWeather(ctx context.Context, conditions ...models.Condition) ([]*models.Weather, error) {
	return t.state.findWeather(conditions)
}

func (t *txView) CreateWeather(ctx context.Context, w *models.Weather) error {
	return t.state.createWeather(w)
}

func notFound(resource string, id int64) error {
	return &repository.NotFoundError{Resource: resource, ID: strconv.FormatInt(id, 10)}
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (st *state) getCity(id int64) (*models.City, error) {
	city, ok := st.cities[id]
	if !ok {
		return nil, notFound("city", id)
	}
	return &city, nil
}

func (st *state) findCities(conditions []models.Condition) ([]*models.City, error) {
	f, err := query.New(conditions...)
	if err != nil {
		return nil, err
	}

	var out []*models.City
	for _, id := range sortedIDs(st.cities) {
		city := st.cities[id]
		if f.Match(&city) {
			out = append(out, &city)
		}
	}
	return out, nil
}

func (st *state) createCitiesBatch(cities []*models.City) int {
	inserted := 0
	for _, c := range cities {
		if _, exists := st.cities[c.ID]; exists {
			continue
		}
		st.cities[c.ID] = *c
		inserted++
	}
	return inserted
}

func (st *state) updateCity(city *models.City) error {
	if _, ok := st.cities[city.ID]; !ok {
		return notFound("city", city.ID)
	}
	st.cities[city.ID] = *city
	return nil
}

func (st *state) getOperator(id int64) (*models.Operator, error) {
	op, ok := st.operators[id]
	if !ok {
		return nil, notFound("operator", id)
	}
	return &op, nil
}

func (st *state) findOperators(conditions []models.Condition) ([]*models.Operator, error) {
	f, err := query.New(conditions...)
	if err != nil {
		return nil, err
	}

	var out []*models.Operator
	for _, id := range sortedIDs(st.operators) {
		op := st.operators[id]
		if f.Match(&op) {
			out = append(out, &op)
		}
	}
	return out, nil
}

func (st *state) usernameTaken(username string, except int64) bool {
	for id, op := range st.operators {
		if id != except && op.Username == username {
			return true
		}
	}
	return false
}

func (st *state) createOperator(op *models.Operator) error {
	if st.usernameTaken(op.Username, 0) {
		return fmt.Errorf("create operator %q: %w", op.Username, models.ErrDuplicateUsername)
	}

	op.ID = st.nextOperatorID
	st.nextOperatorID++
	st.operators[op.ID] = *op
	return nil
}

func (st *state) updateOperator(op *models.Operator) error {
	existing, ok := st.operators[op.ID]
	if !ok {
		return notFound("operator", op.ID)
	}
	if st.usernameTaken(op.Username, op.ID) {
		return fmt.Errorf("update operator %d: %w", op.ID, models.ErrDuplicateUsername)
	}

	updated := *op
	updated.CreatedAt = existing.CreatedAt
	st.operators[op.ID] = updated
	return nil
}

func copyCenter(c models.Center) models.Center {
	c.CityIDs = append([]int64(nil), c.CityIDs...)
	return c
}

func (st *state) getCenter(id int64) *models.Center {
	c, ok := st.centers[id]
	if !ok {
		return nil
	}
	out := copyCenter(c)
	return &out
}

func (st *state) findCenters(conditions []models.Condition) ([]*models.Center, error) {
	f, err := query.New(conditions...)
	if err != nil {
		return nil, err
	}

	var out []*models.Center
	for _, id := range sortedIDs(st.centers) {
		c := copyCenter(st.centers[id])
		if f.Match(&c) {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (st *state) listCenters() []*models.Center {
	out := make([]*models.Center, 0, len(st.centers))
	for _, id := range sortedIDs(st.centers) {
		c := copyCenter(st.centers[id])
		out = append(out, &c)
	}
	return out
}

func (st *state) centerTaken(c *models.Center, except int64) bool {
	f, err := query.New(c.IdentityConditions()...)
	if err != nil {
		return false
	}
	for id, existing := range st.centers {
		if id != except && f.Match(&existing) {
			return true
		}
	}
	return false
}

func (st *state) createCenter(c *models.Center) error {
	if st.centerTaken(c, 0) {
		return fmt.Errorf("create center %q: %w", c.CenterName, models.ErrDuplicateCenter)
	}

	c.ID = st.nextCenterID
	st.nextCenterID++
	st.centers[c.ID] = copyCenter(*c)
	return nil
}

func (st *state) updateCenter(c *models.Center) error {
	if _, ok := st.centers[c.ID]; !ok {
		return notFound("center", c.ID)
	}
	if st.centerTaken(c, c.ID) {
		return fmt.Errorf("update center %d: %w", c.ID, models.ErrDuplicateCenter)
	}
	st.centers[c.ID] = copyCenter(*c)
	return nil
}

func copyWeather(w models.Weather) models.Weather {
	for i, e := range w.Categories {
		if e.Score != nil {
			score := *e.Score
			w.Categories[i].Score = &score
		}
		if e.Comment != nil {
			comment := *e.Comment
			w.Categories[i].Comment = &comment
		}
	}
	return w
}

func (st *state) getWeather(id int64) (*models.Weather, error) {
	for _, w := range st.weather {
		if w.ID == id {
			out := copyWeather(w)
			return &out, nil
		}
	}
	return nil, notFound("weather", id)
}

func (st *state) findWeather(conditions []models.Condition) ([]*models.Weather, error) {
	f, err := query.New(conditions...)
	if err != nil {
		return nil, err
	}

	var out []*models.Weather
	for _, w := range st.weather {
		if f.Match(&w) {
			rec := copyWeather(w)
			out = append(out, &rec)
		}
	}
	return out, nil
}

func (st *state) createWeather(w *models.Weather) error {
	w.ID = st.nextWeatherID
	st.nextWeatherID++
	w.Date = models.TruncateDay(w.Date)
	st.weather = append(st.weather, copyWeather(*w))
	return nil
}
