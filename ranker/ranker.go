// Package ranker orders board posts by popularity and recency.
package ranker

import (
	"math"
	"sort"
	"time"

	"github.com/inho1628/korea-community-website/model"
)

const (
	viewWeight    = 0.1
	likeWeight    = 5.0
	commentWeight = 3.0

	// decayWindow is how long a comment keeps contributing more than the floor.
	decayWindow = 168 * time.Hour
	decayFloor  = 0.1

	// DefaultFeaturedThreshold is the score at which a humor post is featured.
	DefaultFeaturedThreshold = 50
	// DefaultBestComments is how many comments a feed entry previews.
	DefaultBestComments = 2
)

// RankedPost is a post with its live comment count and popularity score.
type RankedPost struct {
	model.Post
	CommentCount int `json:"commentCount"`
	Score        int `json:"score"`
}

// Ranker scores posts against a clock.
type Ranker struct {
	now               func() time.Time
	featuredThreshold int
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		r.now = now
	}
}

// WithFeaturedThreshold sets the minimum score of a featured humor post.
func WithFeaturedThreshold(score int) Option {
	return func(r *Ranker) {
		r.featuredThreshold = score
	}
}

// NewRanker creates a ranker using the wall clock.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{
		now:               time.Now,
		featuredThreshold: DefaultFeaturedThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TimeDecay scales the comment contribution by age: linear from 1 at age
// zero down to a floor of 0.1 reached after one week.
func TimeDecay(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return math.Max(decayFloor, 1-age.Hours()/decayWindow.Hours())
}

// Score computes round(views*0.1 + likes*5 + comments*3*decay). Only the
// comment term decays. Unparsable creation times count as age zero.
func (r *Ranker) Score(post model.Post, comments int) int {
	now := r.now()
	age := now.Sub(post.CreatedAt.Or(now))

	raw := float64(post.Views)*viewWeight +
		float64(post.Likes)*likeWeight +
		float64(comments)*commentWeight*TimeDecay(age)

	return int(math.Round(raw))
}

// RankAll returns every non-deleted post ordered by score, highest first.
// Posts with equal scores keep their stored order.
func (r *Ranker) RankAll(posts []model.Post, comments []model.Comment) []RankedPost {
	ranked := r.score(posts, comments, func(model.Post) bool { return true })

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// TopHot returns the first n posts of RankAll. A non-positive n returns all.
func (r *Ranker) TopHot(posts []model.Post, comments []model.Comment, n int) []RankedPost {
	ranked := r.RankAll(posts, comments)
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// RankCategory lists one category. Humor is ordered by score, every other
// category by creation time, newest first.
func (r *Ranker) RankCategory(posts []model.Post, comments []model.Comment, category model.Category) []RankedPost {
	ranked := r.score(posts, comments, func(p model.Post) bool {
		return p.Category == category
	})

	if category == model.CategoryHumor {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Score > ranked[j].Score
		})
		return ranked
	}

	r.sortNewest(ranked)
	return ranked
}

// Newest orders the non-deleted posts accepted by keep, newest first.
func (r *Ranker) Newest(posts []model.Post, comments []model.Comment, keep func(model.Post) bool) []RankedPost {
	ranked := r.score(posts, comments, keep)
	r.sortNewest(ranked)
	return ranked
}

// IsFeatured reports whether a humor post is popular enough to highlight.
func (r *Ranker) IsFeatured(post RankedPost) bool {
	return post.Category == model.CategoryHumor && post.Score >= r.featuredThreshold
}

func (r *Ranker) sortNewest(ranked []RankedPost) {
	now := r.now()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CreatedAt.Or(now).After(ranked[j].CreatedAt.Or(now))
	})
}

func (r *Ranker) score(posts []model.Post, comments []model.Comment, keep func(model.Post) bool) []RankedPost {
	counts := countByPost(comments)

	ranked := make([]RankedPost, 0, len(posts))
	for _, p := range posts {
		if p.Deleted || !keep(p) {
			continue
		}
		n := counts[p.ID]
		ranked = append(ranked, RankedPost{
			Post:         p,
			CommentCount: n,
			Score:        r.Score(p, n),
		})
	}
	return ranked
}

// CommentCount counts the non-deleted comments of a post.
func CommentCount(comments []model.Comment, postID string) int {
	var n int
	for _, c := range comments {
		if c.PostID == postID && !c.Deleted {
			n++
		}
	}
	return n
}

// BestComments returns up to limit non-deleted comments of a post, most
// liked first and newest first among equal likes. A non-positive limit
// uses DefaultBestComments. Comments without a valid time count as posted
// now by the ranker clock.
func (r *Ranker) BestComments(comments []model.Comment, postID string, limit int) []model.Comment {
	if limit <= 0 {
		limit = DefaultBestComments
	}

	best := make([]model.Comment, 0)
	for _, c := range comments {
		if c.PostID == postID && !c.Deleted {
			best = append(best, c)
		}
	}

	now := r.now()
	sort.SliceStable(best, func(i, j int) bool {
		if best[i].Likes != best[j].Likes {
			return best[i].Likes > best[j].Likes
		}
		return best[i].CreatedAt.Or(now).After(best[j].CreatedAt.Or(now))
	})

	if len(best) > limit {
		best = best[:limit]
	}
	return best
}

func countByPost(comments []model.Comment) map[string]int {
	counts := make(map[string]int)
	for _, c := range comments {
		if !c.Deleted {
			counts[c.PostID]++
		}
	}
	return counts
}
