package handlers

import (
	"net/http"

	"actuarialhub/internal/security"
)

// Routes groups every handler the API serves
type Routes struct {
	Middleware   *Middleware
	AuthLimiter  *security.RateLimiter
	Auth         *AuthHandler
	OAuth        *OAuthHandler
	Profile      *ProfileHandler
	Quests       *QuestHandler
	Sandbox      *SandboxHandler
	News         *NewsHandler
	Community    *CommunityHandler
	Achievements *AchievementHandler
	Admin        *AdminHandler
}

// Register adds every route to mux
func (rt *Routes) Register(mux *http.ServeMux) {
	m := rt.Middleware

	// auth wraps a handler with session resolution and CSRF checks
	auth := func(h http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(m.CSRFProtect(h))
	}
	staff := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(m.RequireStaff(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return auth(m.RequireAdmin(h))
	}
	limited := func(h http.HandlerFunc) http.HandlerFunc {
		if rt.AuthLimiter == nil {
			return h
		}
		return RateLimit(rt.AuthLimiter, h)
	}

	// Public routes
	mux.HandleFunc("GET /healthz", Healthz)
	mux.HandleFunc("GET /api/status", ShowStartupStatus)
	mux.HandleFunc("POST /api/auth/register", limited(rt.Auth.Register))
	mux.HandleFunc("POST /api/auth/login", limited(rt.Auth.Login))
	mux.HandleFunc("POST /api/auth/password-reset", limited(rt.Auth.RequestPasswordReset))
	mux.HandleFunc("POST /api/auth/password-reset/confirm", limited(rt.Auth.ConfirmPasswordReset))
	if rt.OAuth != nil {
		mux.HandleFunc("GET /api/auth/providers", rt.OAuth.Providers)
		mux.HandleFunc("GET /auth/{provider}/start", rt.OAuth.StartOAuth)
		mux.HandleFunc("GET /auth/{provider}/callback", rt.OAuth.OAuthCallback)
	}

	// Signed-in routes
	mux.HandleFunc("POST /api/auth/logout", auth(rt.Auth.Logout))
	mux.HandleFunc("GET /api/auth/me", auth(rt.Auth.Me))
	mux.HandleFunc("GET /api/profile", auth(rt.Profile.GetProfile))
	mux.HandleFunc("PUT /api/profile", auth(rt.Profile.UpdateProfile))

	mux.HandleFunc("GET /api/quests", auth(rt.Quests.ListQuests))
	mux.HandleFunc("GET /api/quests/active", auth(rt.Quests.ActiveQuest))
	mux.HandleFunc("GET /api/quests/{id}", auth(rt.Quests.GetQuest))
	mux.HandleFunc("GET /api/quest-categories", auth(rt.Quests.ListCategories))
	mux.HandleFunc("POST /api/quests/{id}/start", auth(rt.Quests.StartQuest))
	mux.HandleFunc("POST /api/quests/{id}/advance", auth(rt.Quests.AdvanceQuest))
	mux.HandleFunc("POST /api/quests/{id}/abandon", auth(rt.Quests.AbandonQuest))

	mux.HandleFunc("POST /api/sandbox/run", auth(rt.Sandbox.RunSimulation))
	mux.HandleFunc("GET /api/sandbox/best", auth(rt.Sandbox.BestScore))

	mux.HandleFunc("GET /api/news/categories", auth(rt.News.ListCategories))
	mux.HandleFunc("GET /api/news/articles", auth(rt.News.ListArticles))
	mux.HandleFunc("GET /api/news/articles/{id}", auth(rt.News.GetArticle))

	mux.HandleFunc("GET /api/community/posts", auth(rt.Community.ListPosts))
	mux.HandleFunc("POST /api/community/posts", auth(rt.Community.CreatePost))
	mux.HandleFunc("GET /api/community/posts/{id}", auth(rt.Community.GetPost))
	mux.HandleFunc("DELETE /api/community/posts/{id}", auth(rt.Community.DeletePost))
	mux.HandleFunc("POST /api/community/posts/{id}/replies", auth(rt.Community.CreateReply))
	mux.HandleFunc("POST /api/community/posts/{id}/like", auth(rt.Community.ToggleLike))
	mux.HandleFunc("GET /api/community/contributors", auth(rt.Community.TopContributors))
	mux.HandleFunc("GET /api/community/live", auth(rt.Community.Live))

	mux.HandleFunc("GET /api/achievements", auth(rt.Achievements.ListAchievements))
	mux.HandleFunc("GET /api/activities", auth(rt.Achievements.ListActivities))

	// Staff routes
	mux.HandleFunc("POST /api/admin/quests", staff(rt.Quests.CreateQuest))
	mux.HandleFunc("PUT /api/admin/quests/{id}", staff(rt.Quests.UpdateQuest))
	mux.HandleFunc("DELETE /api/admin/quests/{id}", staff(rt.Quests.DeleteQuest))
	mux.HandleFunc("POST /api/admin/news/categories", staff(rt.News.CreateCategory))
	mux.HandleFunc("POST /api/admin/news/articles", staff(rt.News.CreateArticle))
	mux.HandleFunc("PUT /api/admin/news/articles/{id}", staff(rt.News.UpdateArticle))
	mux.HandleFunc("DELETE /api/admin/news/articles/{id}", staff(rt.News.DeleteArticle))

	// Admin routes
	mux.HandleFunc("GET /api/admin/users", admin(rt.Admin.ListUsers))
	mux.HandleFunc("PUT /api/admin/users/{id}/role", admin(rt.Admin.UpdateUserRole))
	mux.HandleFunc("GET /api/admin/settings/registration", admin(rt.Admin.GetRegistration))
	mux.HandleFunc("PUT /api/admin/settings/registration", admin(rt.Admin.UpdateRegistration))
	mux.HandleFunc("GET /api/admin/stats", admin(rt.Admin.DatabaseStats))
	mux.HandleFunc("GET /api/admin/backup", admin(rt.Admin.ExportDatabase))
	mux.HandleFunc("POST /api/admin/backup", admin(rt.Admin.ImportDatabase))
}
