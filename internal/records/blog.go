package records

import (
	"context"
	"strings"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/store"
	"go.uber.org/zap"
)

// ListBlogPosts returns posts newest first by publish date. The public site
// passes publishedOnly; the console lists drafts too.
func (s *Service) ListBlogPosts(ctx context.Context, publishedOnly bool) ([]BlogPost, error) {
	if s.Degraded() {
		return []BlogPost{}, nil
	}
	query := store.From(store.TableBlogPosts).OrderBy("published_date", true)
	if publishedOnly {
		query = query.Eq("is_published", true)
	}
	var posts []BlogPost
	if err := s.store.Select(ctx, query, &posts); err != nil {
		return nil, s.fail(opListBlogPosts, reasonQueryFailed, err)
	}
	return posts, nil
}

// BlogPostByID looks a post up by identifier; found is false when it does not exist.
func (s *Service) BlogPostByID(ctx context.Context, id string) (BlogPost, bool, error) {
	postID, ok := normalizeID(id)
	if s.Degraded() || !ok {
		return BlogPost{}, false, nil
	}
	var posts []BlogPost
	if err := s.store.Select(ctx, store.From(store.TableBlogPosts).Eq("id", postID).Take(1), &posts); err != nil {
		return BlogPost{}, false, s.fail(opBlogPostByID, reasonQueryFailed, err, zap.String("id", postID))
	}
	if len(posts) == 0 {
		return BlogPost{}, false, nil
	}
	return posts[0], true, nil
}

// CreateBlogPost inserts a post. A zero publish date takes the current time
// and an empty author takes the configured site author.
func (s *Service) CreateBlogPost(ctx context.Context, fields BlogPostFields) ([]BlogPost, error) {
	if s.Degraded() {
		return nil, nil
	}
	title := strings.TrimSpace(fields.Title)
	if title == "" {
		return nil, s.fail(opCreateBlogPost, reasonMissingFields, errMissingFields)
	}
	now := s.now()
	publishedDate := fields.PublishedDate.UTC()
	if fields.PublishedDate.IsZero() {
		publishedDate = now
	}
	author := strings.TrimSpace(fields.Author)
	if author == "" {
		author = s.blogAuthor
	}
	values := map[string]any{
		"title":          title,
		"excerpt":        fields.Excerpt,
		"content":        fields.Content,
		"is_published":   fields.IsPublished,
		"published_date": publishedDate,
		"updated_at":     now,
		"author":         author,
	}
	var created []BlogPost
	if err := s.store.Insert(ctx, store.TableBlogPosts, values, &created); err != nil {
		return nil, s.fail(opCreateBlogPost, reasonInsertFailed, err)
	}
	return created, nil
}

// UpdateBlogPost merges the changed columns with a fresh updated_at.
func (s *Service) UpdateBlogPost(ctx context.Context, id string, update BlogPostUpdate) ([]BlogPost, error) {
	if s.Degraded() {
		return nil, nil
	}
	postID, ok := normalizeID(id)
	if !ok {
		return nil, s.fail(opUpdateBlogPost, reasonMissingID, errMissingID)
	}
	values := map[string]any{"updated_at": s.now()}
	if update.Title != nil {
		values["title"] = strings.TrimSpace(*update.Title)
	}
	if update.Excerpt != nil {
		values["excerpt"] = *update.Excerpt
	}
	if update.Content != nil {
		values["content"] = *update.Content
	}
	if update.IsPublished != nil {
		values["is_published"] = *update.IsPublished
	}
	if update.Author != nil {
		values["author"] = strings.TrimSpace(*update.Author)
	}
	var updated []BlogPost
	if err := s.store.Update(ctx, store.From(store.TableBlogPosts).Eq("id", postID), values, &updated); err != nil {
		return nil, s.fail(opUpdateBlogPost, reasonUpdateFailed, err, zap.String("id", postID))
	}
	return updated, nil
}

// DeleteBlogPost removes one post. deleted is false when no row matched.
func (s *Service) DeleteBlogPost(ctx context.Context, id string) (bool, error) {
	if s.Degraded() {
		return false, nil
	}
	postID, ok := normalizeID(id)
	if !ok {
		return false, s.fail(opDeleteBlogPost, reasonMissingID, errMissingID)
	}
	affected, err := s.store.Delete(ctx, store.From(store.TableBlogPosts).Eq("id", postID))
	if err != nil {
		return false, s.fail(opDeleteBlogPost, reasonDeleteFailed, err, zap.String("id", postID))
	}
	return affected > 0, nil
}
