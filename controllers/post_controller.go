package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cspring/microblog/middleware"
	"github.com/cspring/microblog/models"
	"github.com/cspring/microblog/services"
	"github.com/cspring/microblog/store"
	"github.com/cspring/microblog/utils"
)

const fragmentCachePrefix = "cache:posts:fragment:"

// PostController serves the post pages and the post/like/comment actions.
type PostController struct {
	posts *services.PostService
}

// NewPostController creates a PostController.
func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

// Home renders the front page with all posts, newest first.
func (p *PostController) Home(c *gin.Context) {
	posts, err := p.posts.List(store.SortByRecency)
	if err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	c.HTML(http.StatusOK, "home.tmpl", gin.H{
		"Posts": posts,
		"User":  middleware.UserFrom(c),
	})
}

// SortPosts returns a server-rendered HTML fragment of the sorted post list
// as JSON {"html": ...}. Fragments are cached per sort order and viewer,
// because the delete button only renders for the viewer's own posts.
func (p *PostController) SortPosts(c *gin.Context) {
	sortBy := store.SortOrder(c.DefaultQuery("sortBy", string(store.SortByRecency)))
	user := middleware.UserFrom(c)

	cacheKey := fmt.Sprintf("%ssort=%s:user=%s", fragmentCachePrefix, sortBy, user.Username)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		c.Data(http.StatusOK, "application/json", b)
		return
	}

	posts, err := p.posts.List(sortBy)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"html": ""})
		return
	}

	html := renderPostsFragment(posts, user)
	c.JSON(http.StatusOK, gin.H{"html": html})

	if body, err := jsonFragment(html); err == nil {
		utils.CacheSetBytes(cacheKey, body, 0)
	}
}

// PostPage renders one post with its comments, or the error page redirect
// when the post is missing.
func (p *PostController) PostPage(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	post, err := p.posts.Get(id)
	if err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	comments, err := p.posts.Comments(id)
	if err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	c.HTML(http.StatusOK, "post.tmpl", gin.H{
		"Post":     post,
		"Comments": comments,
		"User":     middleware.UserFrom(c),
	})
}

// CreatePost inserts a post for the current user from the submitted form.
// Anonymous submitters are sent to the login page.
func (p *PostController) CreatePost(c *gin.Context) {
	user := middleware.UserFrom(c)
	if user.IsAnonymous() {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if _, err := p.posts.Create(c.PostForm("title"), c.PostForm("content"), user); err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	utils.InvalidateByPrefix(fragmentCachePrefix)
	c.Redirect(http.StatusFound, "/")
}

// ToggleLike flips the current user's like on a post. The response is the
// JSON API contract {success, likes, liked}; every refusal (anonymous
// caller, own post, missing post) collapses to success=false.
func (p *PostController) ToggleLike(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	likes, liked, err := p.posts.ToggleLike(id, middleware.UserFrom(c))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	utils.InvalidateByPrefix(fragmentCachePrefix)
	c.JSON(http.StatusOK, gin.H{"success": true, "likes": likes, "liked": liked})
}

// DeletePost removes the current user's own post, then returns home. Any
// refusal lands on the error page, same redirect for missing and forbidden.
func (p *PostController) DeletePost(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	if err := p.posts.Delete(id, middleware.UserFrom(c)); err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	utils.InvalidateByPrefix(fragmentCachePrefix)
	c.Redirect(http.StatusFound, "/")
}

// Profile renders the current user's posts.
func (p *PostController) Profile(c *gin.Context) {
	user := middleware.UserFrom(c)
	posts, err := p.posts.PostsBy(user.Username)
	if err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	c.HTML(http.StatusOK, "profile.tmpl", gin.H{
		"Posts": posts,
		"User":  user,
	})
}

// AddComment attaches a comment to a post and returns to the post page.
func (p *PostController) AddComment(c *gin.Context) {
	user := middleware.UserFrom(c)
	if user.IsAnonymous() {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	if _, err := p.posts.AddComment(id, user, c.PostForm("content")); err != nil {
		c.Redirect(http.StatusFound, "/error")
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d", id))
}

// renderPostsFragment builds the escaped HTML fragment the frontend swaps in
// when re-sorting, mirroring the server-rendered post cards.
func renderPostsFragment(posts []models.Post, viewer models.User) string {
	var b strings.Builder
	for _, post := range posts {
		username := template.HTMLEscapeString(post.Username)
		avatarURL := "/avatar/" + username
		fmt.Fprintf(&b, `<div class="post">`)
		fmt.Fprintf(&b, `<div class="post-avatar"><img src="%s" alt="%s's avatar"></div>`, avatarURL, username)
		fmt.Fprintf(&b, `<div class="post-content preserve-newlines">`)
		fmt.Fprintf(&b, `<h2>%s</h2><p>%s</p>`, template.HTMLEscapeString(post.Title), template.HTMLEscapeString(post.Content))
		fmt.Fprintf(&b, `<p>Posted by <strong>%s</strong> on <em>%s</em></p>`, username, post.Timestamp.Format("01/02/2006, 03:04:05 PM"))
		fmt.Fprintf(&b, `<div class="post-status-bar">`)
		fmt.Fprintf(&b, `<button data-id="%d" class="like-button" onclick="handleLikeClick(event)"><span class="likes-count">%d</span></button>`, post.ID, post.Likes)
		if viewer.Username == post.Username {
			fmt.Fprintf(&b, `<button data-id="%d" class="delete-button" onclick="handleDeleteClick(event)">delete</button>`, post.ID)
		}
		b.WriteString(`</div></div></div>`)
	}
	return b.String()
}

func jsonFragment(html string) ([]byte, error) {
	return json.Marshal(gin.H{"html": html})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
