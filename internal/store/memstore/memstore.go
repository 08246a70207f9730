// Package memstore is an in-memory store.Store used by tests. WithTx works
// on a snapshot that is restored when the callback fails, and individual
// operations can be made to fail with Fail.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"buhoeats/api/internal/models"
	"buhoeats/api/internal/store"
)

type favoriteKey struct {
	userID       int64
	restaurantID int64
}

type data struct {
	users       map[int64]models.User
	restaurants map[int64]models.Restaurant
	reviews     map[int64]models.Review
	reports     map[int64]models.ReviewReport
	menu        map[int64]models.MenuItem
	favorites   map[favoriteKey]time.Time
	sessions    map[string]models.Session
	audit       []models.AuditEntry
	attempts    []models.LoginAttempt
	nextID      int64
}

func newData() *data {
	return &data{
		users:       make(map[int64]models.User),
		restaurants: make(map[int64]models.Restaurant),
		reviews:     make(map[int64]models.Review),
		reports:     make(map[int64]models.ReviewReport),
		menu:        make(map[int64]models.MenuItem),
		favorites:   make(map[favoriteKey]time.Time),
		sessions:    make(map[string]models.Session),
	}
}

func (d *data) clone() *data {
	c := newData()
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.restaurants {
		c.restaurants[k] = v
	}
	for k, v := range d.reviews {
		c.reviews[k] = v
	}
	for k, v := range d.reports {
		c.reports[k] = v
	}
	for k, v := range d.menu {
		c.menu[k] = v
	}
	for k, v := range d.favorites {
		c.favorites[k] = v
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	c.audit = append(c.audit, d.audit...)
	c.attempts = append(c.attempts, d.attempts...)
	c.nextID = d.nextID
	return c
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

type shared struct {
	// txMu serializes transactions, standing in for the row locks the
	// postgres store takes.
	txMu     sync.Mutex
	mu       sync.Mutex
	data     *data
	failures map[string]error
	now      func() time.Time
}

type Store struct {
	sh   *shared
	inTx bool
}

func New() *Store {
	return &Store{sh: &shared{
		data:     newData(),
		failures: make(map[string]error),
		now:      time.Now,
	}}
}

// Fail makes every later call of op return err. op has the form
// "reviews.Deactivate". A nil err clears the failure.
func (s *Store) Fail(op string, err error) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if err == nil {
		delete(s.sh.failures, op)
		return
	}
	s.sh.failures[op] = err
}

func (s *Store) SetClock(now func() time.Time) {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	s.sh.now = now
}

// lock acquires the store mutex and returns the injected failure for op.
func (s *Store) lock(op string) error {
	s.sh.mu.Lock()
	return s.sh.failures[op]
}

func (s *Store) unlock() {
	s.sh.mu.Unlock()
}

func (s *Store) Users() store.UserStore             { return users{s} }
func (s *Store) Restaurants() store.RestaurantStore { return restaurants{s} }
func (s *Store) Reviews() store.ReviewStore         { return reviews{s} }
func (s *Store) Reports() store.ReportStore         { return reports{s} }
func (s *Store) Audit() store.AuditStore            { return audit{s} }
func (s *Store) Menu() store.MenuStore              { return menu{s} }
func (s *Store) Favorites() store.FavoriteStore     { return favorites{s} }
func (s *Store) Sessions() store.SessionStore       { return sessions{s} }
func (s *Store) Stats() store.StatsStore            { return stats{s} }
func (s *Store) LoginAttempts() store.AttemptStore  { return attempts{s} }

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	s.sh.txMu.Lock()
	defer s.sh.txMu.Unlock()

	s.sh.mu.Lock()
	snapshot := s.sh.data.clone()
	s.sh.mu.Unlock()

	restore := func() {
		s.sh.mu.Lock()
		s.sh.data = snapshot
		s.sh.mu.Unlock()
	}

	defer func() {
		if p := recover(); p != nil {
			restore()
			panic(p)
		}
		if err != nil {
			restore()
		}
	}()

	return fn(&Store{sh: s.sh, inTx: true})
}

// Seed helpers.

func (s *Store) AddUser(user models.User) models.User {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if user.ID == 0 {
		user.ID = s.sh.data.id()
	} else if user.ID > s.sh.data.nextID {
		s.sh.data.nextID = user.ID
	}
	if user.Role == "" {
		user.Role = models.UserRoleUser
	}
	user.CreatedAt = s.sh.now()
	user.UpdatedAt = user.CreatedAt
	s.sh.data.users[user.ID] = user
	return user
}

func (s *Store) AddRestaurant(restaurant models.Restaurant) models.Restaurant {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if restaurant.ID == 0 {
		restaurant.ID = s.sh.data.id()
	} else if restaurant.ID > s.sh.data.nextID {
		s.sh.data.nextID = restaurant.ID
	}
	restaurant.CreatedAt = s.sh.now()
	restaurant.UpdatedAt = restaurant.CreatedAt
	s.sh.data.restaurants[restaurant.ID] = restaurant
	return restaurant
}

func (s *Store) AddReview(review models.Review) models.Review {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if review.ID == 0 {
		review.ID = s.sh.data.id()
	} else if review.ID > s.sh.data.nextID {
		s.sh.data.nextID = review.ID
	}
	review.CreatedAt = s.sh.now()
	review.UpdatedAt = review.CreatedAt
	s.sh.data.reviews[review.ID] = review
	return review
}

func (s *Store) AddReport(report models.ReviewReport) models.ReviewReport {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	if report.ID == 0 {
		report.ID = s.sh.data.id()
	} else if report.ID > s.sh.data.nextID {
		s.sh.data.nextID = report.ID
	}
	if report.Status == "" {
		report.Status = models.ReportStatusPending
	}
	report.CreatedAt = s.sh.now()
	s.sh.data.reports[report.ID] = report
	return report
}

func (s *Store) User(id int64) models.User {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return s.sh.data.users[id]
}

func (s *Store) Restaurant(id int64) models.Restaurant {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return s.sh.data.restaurants[id]
}

func (s *Store) Review(id int64) models.Review {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return s.sh.data.reviews[id]
}

func (s *Store) Report(id int64) models.ReviewReport {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return s.sh.data.reports[id]
}

func (s *Store) AuditEntries() []models.AuditEntry {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return append([]models.AuditEntry(nil), s.sh.data.audit...)
}

func (s *Store) SessionCount(userID int64) int {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	n := 0
	for _, session := range s.sh.data.sessions {
		if session.UserID == userID {
			n++
		}
	}
	return n
}

func (s *Store) Attempts() []models.LoginAttempt {
	s.sh.mu.Lock()
	defer s.sh.mu.Unlock()
	return append([]models.LoginAttempt(nil), s.sh.data.attempts...)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

type users struct{ s *Store }

func (u users) Create(ctx context.Context, user models.User) (models.User, error) {
	if err := u.s.lock("users.Create"); err != nil {
		u.s.unlock()
		return models.User{}, err
	}
	defer u.s.unlock()
	d := u.s.sh.data
	for _, existing := range d.users {
		if existing.Email == user.Email {
			return models.User{}, store.ErrDuplicate
		}
	}
	user.ID = d.id()
	user.Strikes = 0
	user.IsActive = true
	user.CreatedAt = u.s.sh.now()
	user.UpdatedAt = user.CreatedAt
	d.users[user.ID] = user
	return user, nil
}

func (u users) GetByID(ctx context.Context, id int64) (models.User, error) {
	if err := u.s.lock("users.GetByID"); err != nil {
		u.s.unlock()
		return models.User{}, err
	}
	defer u.s.unlock()
	user, ok := u.s.sh.data.users[id]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	return user, nil
}

func (u users) GetByIDForUpdate(ctx context.Context, id int64) (models.User, error) {
	return u.GetByID(ctx, id)
}

func (u users) FindByEmail(ctx context.Context, email string) (models.User, error) {
	if err := u.s.lock("users.FindByEmail"); err != nil {
		u.s.unlock()
		return models.User{}, err
	}
	defer u.s.unlock()
	for _, user := range u.s.sh.data.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, store.ErrUserNotFound
}

func (u users) List(ctx context.Context, q models.UserQuery) ([]models.User, int, error) {
	if err := u.s.lock("users.List"); err != nil {
		u.s.unlock()
		return nil, 0, err
	}
	defer u.s.unlock()
	var out []models.User
	for _, user := range u.s.sh.data.users {
		switch q.Filter {
		case models.UserFilterBanned:
			if user.IsActive {
				continue
			}
		case models.UserFilterWithStrikes:
			if user.Strikes == 0 {
				continue
			}
		}
		if q.Search != "" && !containsFold(user.FullName(), q.Search) && !containsFold(user.Email, q.Search) {
			continue
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, q.Limit, q.Offset), len(out), nil
}

func (u users) IncrementStrikes(ctx context.Context, id int64) (int, error) {
	if err := u.s.lock("users.IncrementStrikes"); err != nil {
		u.s.unlock()
		return 0, err
	}
	defer u.s.unlock()
	user, ok := u.s.sh.data.users[id]
	if !ok {
		return 0, store.ErrUserNotFound
	}
	user.Strikes++
	u.s.sh.data.users[id] = user
	return user.Strikes, nil
}

func (u users) Deactivate(ctx context.Context, id int64) (bool, error) {
	if err := u.s.lock("users.Deactivate"); err != nil {
		u.s.unlock()
		return false, err
	}
	defer u.s.unlock()
	user, ok := u.s.sh.data.users[id]
	if !ok || !user.IsActive {
		return false, nil
	}
	user.IsActive = false
	u.s.sh.data.users[id] = user
	return true, nil
}

func (u users) Ban(ctx context.Context, id int64, strikes int) error {
	if err := u.s.lock("users.Ban"); err != nil {
		u.s.unlock()
		return err
	}
	defer u.s.unlock()
	user, ok := u.s.sh.data.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.IsActive = false
	user.Strikes = strikes
	u.s.sh.data.users[id] = user
	return nil
}

func (u users) Unban(ctx context.Context, id int64, resetStrikes bool) error {
	if err := u.s.lock("users.Unban"); err != nil {
		u.s.unlock()
		return err
	}
	defer u.s.unlock()
	user, ok := u.s.sh.data.users[id]
	if !ok {
		return store.ErrUserNotFound
	}
	user.IsActive = true
	if resetStrikes {
		user.Strikes = 0
	}
	u.s.sh.data.users[id] = user
	return nil
}

type restaurants struct{ s *Store }

func (r restaurants) Create(ctx context.Context, restaurant models.Restaurant) (models.Restaurant, error) {
	if err := r.s.lock("restaurants.Create"); err != nil {
		r.s.unlock()
		return models.Restaurant{}, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	restaurant.ID = d.id()
	restaurant.IsActive = true
	restaurant.AverageRating = 0
	restaurant.TotalReviews = 0
	restaurant.CreatedAt = r.s.sh.now()
	restaurant.UpdatedAt = restaurant.CreatedAt
	d.restaurants[restaurant.ID] = restaurant
	return restaurant, nil
}

func (r restaurants) GetByID(ctx context.Context, id int64) (models.Restaurant, error) {
	if err := r.s.lock("restaurants.GetByID"); err != nil {
		r.s.unlock()
		return models.Restaurant{}, err
	}
	defer r.s.unlock()
	restaurant, ok := r.s.sh.data.restaurants[id]
	if !ok {
		return models.Restaurant{}, store.ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (r restaurants) GetByIDForUpdate(ctx context.Context, id int64) (models.Restaurant, error) {
	if err := r.s.lock("restaurants.GetByIDForUpdate"); err != nil {
		r.s.unlock()
		return models.Restaurant{}, err
	}
	defer r.s.unlock()
	restaurant, ok := r.s.sh.data.restaurants[id]
	if !ok {
		return models.Restaurant{}, store.ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (r restaurants) GetByOwner(ctx context.Context, ownerID int64) (models.Restaurant, error) {
	if err := r.s.lock("restaurants.GetByOwner"); err != nil {
		r.s.unlock()
		return models.Restaurant{}, err
	}
	defer r.s.unlock()
	var (
		found models.Restaurant
		ok    bool
	)
	for _, restaurant := range r.s.sh.data.restaurants {
		if restaurant.OwnedBy(ownerID) && (!ok || restaurant.ID < found.ID) {
			found, ok = restaurant, true
		}
	}
	if !ok {
		return models.Restaurant{}, store.ErrRestaurantNotFound
	}
	return found, nil
}

func (r restaurants) List(ctx context.Context, q models.RestaurantQuery) ([]models.Restaurant, int, error) {
	if err := r.s.lock("restaurants.List"); err != nil {
		r.s.unlock()
		return nil, 0, err
	}
	defer r.s.unlock()
	var out []models.Restaurant
	for _, restaurant := range r.s.sh.data.restaurants {
		if !q.IncludeInactive && !restaurant.IsActive {
			continue
		}
		if q.OwnerID != nil && !restaurant.OwnedBy(*q.OwnerID) {
			continue
		}
		if q.CuisineType != "" && !strings.EqualFold(restaurant.CuisineType, q.CuisineType) {
			continue
		}
		if q.Search != "" && !containsFold(restaurant.Name, q.Search) &&
			!containsFold(restaurant.CuisineType, q.Search) && !containsFold(restaurant.Address, q.Search) {
			continue
		}
		out = append(out, restaurant)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageRating != out[j].AverageRating {
			return out[i].AverageRating > out[j].AverageRating
		}
		if out[i].TotalReviews != out[j].TotalReviews {
			return out[i].TotalReviews > out[j].TotalReviews
		}
		return out[i].ID < out[j].ID
	})
	return page(out, q.Limit, q.Offset), len(out), nil
}

func (r restaurants) ListIDs(ctx context.Context) ([]int64, error) {
	if err := r.s.lock("restaurants.ListIDs"); err != nil {
		r.s.unlock()
		return nil, err
	}
	defer r.s.unlock()
	ids := make([]int64, 0, len(r.s.sh.data.restaurants))
	for id := range r.s.sh.data.restaurants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r restaurants) Update(ctx context.Context, restaurant models.Restaurant) error {
	if err := r.s.lock("restaurants.Update"); err != nil {
		r.s.unlock()
		return err
	}
	defer r.s.unlock()
	current, ok := r.s.sh.data.restaurants[restaurant.ID]
	if !ok {
		return store.ErrRestaurantNotFound
	}
	current.Name = restaurant.Name
	current.Description = restaurant.Description
	current.Address = restaurant.Address
	current.CuisineType = restaurant.CuisineType
	current.PriceRange = restaurant.PriceRange
	current.UpdatedAt = r.s.sh.now()
	r.s.sh.data.restaurants[restaurant.ID] = current
	return nil
}

func (r restaurants) SetRating(ctx context.Context, id int64, summary models.RatingSummary) error {
	if err := r.s.lock("restaurants.SetRating"); err != nil {
		r.s.unlock()
		return err
	}
	defer r.s.unlock()
	restaurant, ok := r.s.sh.data.restaurants[id]
	if !ok {
		return store.ErrRestaurantNotFound
	}
	restaurant.AverageRating = summary.AverageRating
	restaurant.TotalReviews = summary.TotalReviews
	r.s.sh.data.restaurants[id] = restaurant
	return nil
}

func (r restaurants) SetActiveByOwner(ctx context.Context, ownerID int64, active bool) (int64, error) {
	if err := r.s.lock("restaurants.SetActiveByOwner"); err != nil {
		r.s.unlock()
		return 0, err
	}
	defer r.s.unlock()
	var n int64
	for id, restaurant := range r.s.sh.data.restaurants {
		if restaurant.OwnedBy(ownerID) && restaurant.IsActive != active {
			restaurant.IsActive = active
			r.s.sh.data.restaurants[id] = restaurant
			n++
		}
	}
	return n, nil
}

type reviews struct{ s *Store }

func (r reviews) Create(ctx context.Context, review models.Review) (models.Review, error) {
	if err := r.s.lock("reviews.Create"); err != nil {
		r.s.unlock()
		return models.Review{}, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	for _, existing := range d.reviews {
		if existing.IsActive && existing.UserID == review.UserID && existing.RestaurantID == review.RestaurantID {
			return models.Review{}, store.ErrDuplicate
		}
	}
	review.ID = d.id()
	review.IsActive = true
	review.CreatedAt = r.s.sh.now()
	review.UpdatedAt = review.CreatedAt
	d.reviews[review.ID] = review
	return review, nil
}

func (r reviews) GetByID(ctx context.Context, id int64) (models.Review, error) {
	if err := r.s.lock("reviews.GetByID"); err != nil {
		r.s.unlock()
		return models.Review{}, err
	}
	defer r.s.unlock()
	review, ok := r.s.sh.data.reviews[id]
	if !ok {
		return models.Review{}, store.ErrReviewNotFound
	}
	return review, nil
}

func (r reviews) GetByIDForUpdate(ctx context.Context, id int64) (models.Review, error) {
	return r.GetByID(ctx, id)
}

func (r reviews) FindActiveByPair(ctx context.Context, userID, restaurantID int64) (models.Review, error) {
	if err := r.s.lock("reviews.FindActiveByPair"); err != nil {
		r.s.unlock()
		return models.Review{}, err
	}
	defer r.s.unlock()
	var (
		found models.Review
		ok    bool
	)
	for _, review := range r.s.sh.data.reviews {
		if review.UserID == userID && review.RestaurantID == restaurantID && review.IsActive && review.ID > found.ID {
			found, ok = review, true
		}
	}
	if !ok {
		return models.Review{}, store.ErrReviewNotFound
	}
	return found, nil
}

func (r reviews) Update(ctx context.Context, review models.Review) error {
	if err := r.s.lock("reviews.Update"); err != nil {
		r.s.unlock()
		return err
	}
	defer r.s.unlock()
	current, ok := r.s.sh.data.reviews[review.ID]
	if !ok {
		return store.ErrReviewNotFound
	}
	current.Rating = review.Rating
	current.Comment = review.Comment
	current.VisitDate = review.VisitDate
	current.UpdatedAt = r.s.sh.now()
	r.s.sh.data.reviews[review.ID] = current
	return nil
}

func (r reviews) Deactivate(ctx context.Context, id int64) (bool, error) {
	if err := r.s.lock("reviews.Deactivate"); err != nil {
		r.s.unlock()
		return false, err
	}
	defer r.s.unlock()
	review, ok := r.s.sh.data.reviews[id]
	if !ok || !review.IsActive {
		return false, nil
	}
	review.IsActive = false
	r.s.sh.data.reviews[id] = review
	return true, nil
}

func (r reviews) DeactivateByUser(ctx context.Context, userID int64) ([]int64, error) {
	if err := r.s.lock("reviews.DeactivateByUser"); err != nil {
		r.s.unlock()
		return nil, err
	}
	defer r.s.unlock()
	seen := make(map[int64]bool)
	var restaurantIDs []int64
	for id, review := range r.s.sh.data.reviews {
		if review.UserID != userID || !review.IsActive {
			continue
		}
		review.IsActive = false
		r.s.sh.data.reviews[id] = review
		if !seen[review.RestaurantID] {
			seen[review.RestaurantID] = true
			restaurantIDs = append(restaurantIDs, review.RestaurantID)
		}
	}
	sort.Slice(restaurantIDs, func(i, j int) bool { return restaurantIDs[i] < restaurantIDs[j] })
	return restaurantIDs, nil
}

func (r reviews) ListByRestaurant(ctx context.Context, restaurantID int64, limit, offset int) ([]models.Review, int, error) {
	if err := r.s.lock("reviews.ListByRestaurant"); err != nil {
		r.s.unlock()
		return nil, 0, err
	}
	defer r.s.unlock()
	var out []models.Review
	for _, review := range r.s.sh.data.reviews {
		if review.RestaurantID != restaurantID || !review.IsActive {
			continue
		}
		review.AuthorName = r.s.sh.data.users[review.UserID].FullName()
		out = append(out, review)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), len(out), nil
}

func (r reviews) ActiveSummary(ctx context.Context, restaurantID int64) (models.RatingSummary, error) {
	if err := r.s.lock("reviews.ActiveSummary"); err != nil {
		r.s.unlock()
		return models.RatingSummary{}, err
	}
	defer r.s.unlock()
	var sum, count int
	for _, review := range r.s.sh.data.reviews {
		if review.RestaurantID == restaurantID && review.IsActive {
			sum += review.Rating
			count++
		}
	}
	summary := models.RatingSummary{TotalReviews: count}
	if count > 0 {
		summary.AverageRating = float64(sum) / float64(count)
	}
	return summary, nil
}

func (r reviews) Distribution(ctx context.Context, restaurantID int64) (map[int]int, error) {
	if err := r.s.lock("reviews.Distribution"); err != nil {
		r.s.unlock()
		return nil, err
	}
	defer r.s.unlock()
	distribution := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, review := range r.s.sh.data.reviews {
		if review.RestaurantID == restaurantID && review.IsActive {
			distribution[review.Rating]++
		}
	}
	return distribution, nil
}

type reports struct{ s *Store }

func (r reports) Create(ctx context.Context, report models.ReviewReport) (models.ReviewReport, error) {
	if err := r.s.lock("reports.Create"); err != nil {
		r.s.unlock()
		return models.ReviewReport{}, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	for _, existing := range d.reports {
		if existing.ReviewID == report.ReviewID && existing.ReporterID == report.ReporterID {
			return models.ReviewReport{}, store.ErrDuplicate
		}
	}
	report.ID = d.id()
	report.Status = models.ReportStatusPending
	report.CreatedAt = r.s.sh.now()
	d.reports[report.ID] = report
	return report, nil
}

func (r reports) GetForUpdate(ctx context.Context, id int64) (models.ReviewReport, error) {
	if err := r.s.lock("reports.GetForUpdate"); err != nil {
		r.s.unlock()
		return models.ReviewReport{}, err
	}
	defer r.s.unlock()
	report, ok := r.s.sh.data.reports[id]
	if !ok {
		return models.ReviewReport{}, store.ErrReportNotFound
	}
	return report, nil
}

func (r reports) Resolve(ctx context.Context, id int64, status models.ReportStatus, adminID int64, at time.Time) (bool, error) {
	if err := r.s.lock("reports.Resolve"); err != nil {
		r.s.unlock()
		return false, err
	}
	defer r.s.unlock()
	report, ok := r.s.sh.data.reports[id]
	if !ok || report.Status != models.ReportStatusPending {
		return false, nil
	}
	report.Status = status
	report.ResolvedAt = &at
	report.ResolvedBy = &adminID
	r.s.sh.data.reports[id] = report
	return true, nil
}

func (r reports) List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.ReportListItem, int, error) {
	if err := r.s.lock("reports.List"); err != nil {
		r.s.unlock()
		return nil, 0, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	var out []models.ReportListItem
	for _, report := range d.reports {
		if report.Status != status {
			continue
		}
		review := d.reviews[report.ReviewID]
		reporter := d.users[report.ReporterID]
		out = append(out, models.ReportListItem{
			ReviewReport:   report,
			ReporterName:   reporter.FullName(),
			ReporterEmail:  reporter.Email,
			ReviewRating:   review.Rating,
			ReviewComment:  review.Comment,
			ReviewAuthorID: review.UserID,
			ReviewActive:   review.IsActive,
			RestaurantID:   review.RestaurantID,
			RestaurantName: d.restaurants[review.RestaurantID].Name,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), len(out), nil
}

func (r reports) CountPendingByRestaurant(ctx context.Context, restaurantID int64) (int, error) {
	if err := r.s.lock("reports.CountPendingByRestaurant"); err != nil {
		r.s.unlock()
		return 0, err
	}
	defer r.s.unlock()
	d := r.s.sh.data
	n := 0
	for _, report := range d.reports {
		if report.Status == models.ReportStatusPending && d.reviews[report.ReviewID].RestaurantID == restaurantID {
			n++
		}
	}
	return n, nil
}

type audit struct{ s *Store }

func (a audit) Insert(ctx context.Context, entry models.AuditEntry) error {
	if err := a.s.lock("audit.Insert"); err != nil {
		a.s.unlock()
		return err
	}
	defer a.s.unlock()
	d := a.s.sh.data
	entry.ID = d.id()
	entry.CreatedAt = a.s.sh.now()
	d.audit = append(d.audit, entry)
	return nil
}

func (a audit) List(ctx context.Context, limit, offset int) ([]models.AuditEntry, int, error) {
	if err := a.s.lock("audit.List"); err != nil {
		a.s.unlock()
		return nil, 0, err
	}
	defer a.s.unlock()
	out := make([]models.AuditEntry, 0, len(a.s.sh.data.audit))
	for i := len(a.s.sh.data.audit) - 1; i >= 0; i-- {
		out = append(out, a.s.sh.data.audit[i])
	}
	return page(out, limit, offset), len(out), nil
}

type menu struct{ s *Store }

func (m menu) List(ctx context.Context, restaurantID int64, q models.MenuQuery) ([]models.MenuItem, error) {
	if err := m.s.lock("menu.List"); err != nil {
		m.s.unlock()
		return nil, err
	}
	defer m.s.unlock()
	var out []models.MenuItem
	for _, item := range m.s.sh.data.menu {
		if item.RestaurantID != restaurantID {
			continue
		}
		if q.Category != "" && item.Category != q.Category {
			continue
		}
		if q.AvailableOnly && !item.IsAvailable {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m menu) GetByID(ctx context.Context, id int64) (models.MenuItem, error) {
	if err := m.s.lock("menu.GetByID"); err != nil {
		m.s.unlock()
		return models.MenuItem{}, err
	}
	defer m.s.unlock()
	item, ok := m.s.sh.data.menu[id]
	if !ok {
		return models.MenuItem{}, store.ErrMenuItemNotFound
	}
	return item, nil
}

func (m menu) Create(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	if err := m.s.lock("menu.Create"); err != nil {
		m.s.unlock()
		return models.MenuItem{}, err
	}
	defer m.s.unlock()
	item.ID = m.s.sh.data.id()
	item.CreatedAt = m.s.sh.now()
	item.UpdatedAt = item.CreatedAt
	m.s.sh.data.menu[item.ID] = item
	return item, nil
}

func (m menu) Update(ctx context.Context, item models.MenuItem) error {
	if err := m.s.lock("menu.Update"); err != nil {
		m.s.unlock()
		return err
	}
	defer m.s.unlock()
	current, ok := m.s.sh.data.menu[item.ID]
	if !ok {
		return store.ErrMenuItemNotFound
	}
	item.RestaurantID = current.RestaurantID
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = m.s.sh.now()
	m.s.sh.data.menu[item.ID] = item
	return nil
}

func (m menu) Delete(ctx context.Context, id int64) error {
	if err := m.s.lock("menu.Delete"); err != nil {
		m.s.unlock()
		return err
	}
	defer m.s.unlock()
	if _, ok := m.s.sh.data.menu[id]; !ok {
		return store.ErrMenuItemNotFound
	}
	delete(m.s.sh.data.menu, id)
	return nil
}

type favorites struct{ s *Store }

func (f favorites) Add(ctx context.Context, userID, restaurantID int64) error {
	if err := f.s.lock("favorites.Add"); err != nil {
		f.s.unlock()
		return err
	}
	defer f.s.unlock()
	key := favoriteKey{userID, restaurantID}
	if _, ok := f.s.sh.data.favorites[key]; ok {
		return store.ErrDuplicate
	}
	f.s.sh.data.favorites[key] = f.s.sh.now()
	return nil
}

func (f favorites) Remove(ctx context.Context, userID, restaurantID int64) error {
	if err := f.s.lock("favorites.Remove"); err != nil {
		f.s.unlock()
		return err
	}
	defer f.s.unlock()
	key := favoriteKey{userID, restaurantID}
	if _, ok := f.s.sh.data.favorites[key]; !ok {
		return store.ErrFavoriteNotFound
	}
	delete(f.s.sh.data.favorites, key)
	return nil
}

func (f favorites) Exists(ctx context.Context, userID, restaurantID int64) (bool, error) {
	if err := f.s.lock("favorites.Exists"); err != nil {
		f.s.unlock()
		return false, err
	}
	defer f.s.unlock()
	_, ok := f.s.sh.data.favorites[favoriteKey{userID, restaurantID}]
	return ok, nil
}

func (f favorites) ListByUser(ctx context.Context, userID int64) ([]models.Restaurant, error) {
	if err := f.s.lock("favorites.ListByUser"); err != nil {
		f.s.unlock()
		return nil, err
	}
	defer f.s.unlock()
	type entry struct {
		restaurant models.Restaurant
		at         time.Time
	}
	var entries []entry
	for key, at := range f.s.sh.data.favorites {
		if key.userID != userID {
			continue
		}
		restaurant, ok := f.s.sh.data.restaurants[key.restaurantID]
		if !ok || !restaurant.IsActive {
			continue
		}
		entries = append(entries, entry{restaurant, at})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].at.Equal(entries[j].at) {
			return entries[i].at.After(entries[j].at)
		}
		return entries[i].restaurant.ID > entries[j].restaurant.ID
	})
	out := make([]models.Restaurant, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.restaurant)
	}
	return out, nil
}

type sessions struct{ s *Store }

func (ss sessions) Create(ctx context.Context, session models.Session) error {
	if err := ss.s.lock("sessions.Create"); err != nil {
		ss.s.unlock()
		return err
	}
	defer ss.s.unlock()
	now := ss.s.sh.now()
	session.CreatedAt = now
	session.LastSeenAt = now
	ss.s.sh.data.sessions[session.ID] = session
	return nil
}

func (ss sessions) GetByID(ctx context.Context, id string) (models.Session, error) {
	if err := ss.s.lock("sessions.GetByID"); err != nil {
		ss.s.unlock()
		return models.Session{}, err
	}
	defer ss.s.unlock()
	session, ok := ss.s.sh.data.sessions[id]
	if !ok {
		return models.Session{}, store.ErrSessionNotFound
	}
	return session, nil
}

func (ss sessions) ListByUser(ctx context.Context, userID int64) ([]models.Session, error) {
	if err := ss.s.lock("sessions.ListByUser"); err != nil {
		ss.s.unlock()
		return nil, err
	}
	defer ss.s.unlock()
	out := make([]models.Session, 0)
	for _, session := range ss.s.sh.data.sessions {
		if session.UserID == userID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeenAt.Equal(out[j].LastSeenAt) {
			return out[i].LastSeenAt.After(out[j].LastSeenAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (ss sessions) FindByRefreshHash(ctx context.Context, refreshHash []byte) (models.Session, error) {
	if err := ss.s.lock("sessions.FindByRefreshHash"); err != nil {
		ss.s.unlock()
		return models.Session{}, err
	}
	defer ss.s.unlock()
	for _, session := range ss.s.sh.data.sessions {
		if string(session.RefreshTokenHash) == string(refreshHash) {
			return session, nil
		}
	}
	return models.Session{}, store.ErrSessionNotFound
}

func (ss sessions) Rotate(ctx context.Context, id string, refreshHash []byte, expiresAt time.Time) error {
	if err := ss.s.lock("sessions.Rotate"); err != nil {
		ss.s.unlock()
		return err
	}
	defer ss.s.unlock()
	session, ok := ss.s.sh.data.sessions[id]
	if !ok {
		return store.ErrSessionNotFound
	}
	session.RefreshTokenHash = refreshHash
	session.ExpiresAt = expiresAt
	session.LastSeenAt = ss.s.sh.now()
	ss.s.sh.data.sessions[id] = session
	return nil
}

func (ss sessions) Touch(ctx context.Context, id string, ip string, userAgent string) error {
	if err := ss.s.lock("sessions.Touch"); err != nil {
		ss.s.unlock()
		return err
	}
	defer ss.s.unlock()
	session, ok := ss.s.sh.data.sessions[id]
	if !ok {
		return nil
	}
	session.LastSeenAt = ss.s.sh.now()
	if ip != "" {
		session.IPAddress = ip
	}
	if userAgent != "" {
		session.UserAgent = userAgent
	}
	ss.s.sh.data.sessions[id] = session
	return nil
}

func (ss sessions) DeleteByID(ctx context.Context, id string) error {
	if err := ss.s.lock("sessions.DeleteByID"); err != nil {
		ss.s.unlock()
		return err
	}
	defer ss.s.unlock()
	if _, ok := ss.s.sh.data.sessions[id]; !ok {
		return store.ErrSessionNotFound
	}
	delete(ss.s.sh.data.sessions, id)
	return nil
}

func (ss sessions) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	if err := ss.s.lock("sessions.DeleteByUser"); err != nil {
		ss.s.unlock()
		return 0, err
	}
	defer ss.s.unlock()
	var n int64
	for id, session := range ss.s.sh.data.sessions {
		if session.UserID == userID {
			delete(ss.s.sh.data.sessions, id)
			n++
		}
	}
	return n, nil
}

func (ss sessions) CountByUser(ctx context.Context, userID int64) (int, error) {
	if err := ss.s.lock("sessions.CountByUser"); err != nil {
		ss.s.unlock()
		return 0, err
	}
	defer ss.s.unlock()
	n := 0
	for _, session := range ss.s.sh.data.sessions {
		if session.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (ss sessions) DeleteOldest(ctx context.Context, userID int64, keepLatest int) error {
	if err := ss.s.lock("sessions.DeleteOldest"); err != nil {
		ss.s.unlock()
		return err
	}
	defer ss.s.unlock()
	var owned []models.Session
	for _, session := range ss.s.sh.data.sessions {
		if session.UserID == userID {
			owned = append(owned, session)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].LastSeenAt.Equal(owned[j].LastSeenAt) {
			return owned[i].LastSeenAt.After(owned[j].LastSeenAt)
		}
		return owned[i].ID > owned[j].ID
	})
	for i := keepLatest; i < len(owned); i++ {
		delete(ss.s.sh.data.sessions, owned[i].ID)
	}
	return nil
}

func (ss sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ss.s.lock("sessions.DeleteExpired"); err != nil {
		ss.s.unlock()
		return 0, err
	}
	defer ss.s.unlock()
	var n int64
	for id, session := range ss.s.sh.data.sessions {
		if session.ExpiresAt.Before(now) {
			delete(ss.s.sh.data.sessions, id)
			n++
		}
	}
	return n, nil
}

type stats struct{ s *Store }

func (st stats) Platform(ctx context.Context) (models.PlatformStats, error) {
	if err := st.s.lock("stats.Platform"); err != nil {
		st.s.unlock()
		return models.PlatformStats{}, err
	}
	defer st.s.unlock()
	d := st.s.sh.data
	out := models.PlatformStats{
		TotalUsers:       len(d.users),
		TotalRestaurants: len(d.restaurants),
	}
	for _, user := range d.users {
		if !user.IsActive {
			out.BannedUsers++
		}
	}
	for _, review := range d.reviews {
		if review.IsActive {
			out.TotalReviews++
		}
	}
	for _, report := range d.reports {
		if report.Status == models.ReportStatusPending {
			out.PendingReports++
		}
	}
	return out, nil
}

type attempts struct{ s *Store }

func (a attempts) Record(ctx context.Context, attempt models.LoginAttempt) error {
	if err := a.s.lock("attempts.Record"); err != nil {
		a.s.unlock()
		return err
	}
	defer a.s.unlock()
	a.s.sh.data.attempts = append(a.s.sh.data.attempts, attempt)
	return nil
}

func (a attempts) Failures(ctx context.Context, dim models.AttemptDimension, key string, since time.Time) (int, time.Time, error) {
	if err := a.s.lock("attempts.Failures"); err != nil {
		a.s.unlock()
		return 0, time.Time{}, err
	}
	defer a.s.unlock()
	var (
		failed int
		last   time.Time
	)
	for _, attempt := range a.s.sh.data.attempts {
		value := attempt.IPAddress
		if dim == models.AttemptDimensionEmail {
			value = attempt.Email
		}
		if value != key {
			continue
		}
		if attempt.AttemptTime.After(last) {
			last = attempt.AttemptTime
		}
		if !attempt.Success && attempt.AttemptTime.After(since) {
			failed++
		}
	}
	return failed, last, nil
}

func (a attempts) ClearFailures(ctx context.Context, ip string, email string) error {
	if err := a.s.lock("attempts.ClearFailures"); err != nil {
		a.s.unlock()
		return err
	}
	defer a.s.unlock()
	kept := a.s.sh.data.attempts[:0]
	for _, attempt := range a.s.sh.data.attempts {
		if !attempt.Success && (attempt.IPAddress == ip || (email != "" && attempt.Email == email)) {
			continue
		}
		kept = append(kept, attempt)
	}
	a.s.sh.data.attempts = kept
	return nil
}

func (a attempts) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := a.s.lock("attempts.DeleteBefore"); err != nil {
		a.s.unlock()
		return 0, err
	}
	defer a.s.unlock()
	var n int64
	kept := a.s.sh.data.attempts[:0]
	for _, attempt := range a.s.sh.data.attempts {
		if attempt.AttemptTime.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, attempt)
	}
	a.s.sh.data.attempts = kept
	return n, nil
}

var (
	_ store.Store        = (*Store)(nil)
	_ store.AttemptStore = attempts{}
)
