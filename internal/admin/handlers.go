package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type prefixRequest struct {
	Prefix string `json:"prefix" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if s.jobs != nil {
		resp["jobs"] = s.jobs.Status()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listJobs(c *gin.Context) {
	if s.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "jobs are not available"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": s.jobs.List()})
}

func (s *Server) stopJob(c *gin.Context) {
	if s.jobs == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "jobs are not available"})
		return
	}
	name := c.Param("name")
	if err := s.jobs.Stop(name); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": err.Error()})
		return
	}
	s.log.Info().Str("job", name).Msg("Job stopped via admin API")
	c.JSON(http.StatusOK, gin.H{"stopped": name, "jobs": s.jobs.List()})
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Snapshot())
}

func (s *Server) setPrefix(c *gin.Context) {
	var req prefixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	applied := s.settings.SetPrefix(req.Prefix)
	s.saved(c, gin.H{"prefix": applied})
}

func (s *Server) setGuildPrefix(c *gin.Context) {
	var req prefixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	guild := c.Param("guild")
	applied := s.settings.AddGuildPrefix(guild, req.Prefix)
	s.saved(c, gin.H{"guild": guild, "prefix": applied})
}

func (s *Server) removeGuildPrefix(c *gin.Context) {
	guild := c.Param("guild")
	s.settings.RemoveGuildPrefix(guild)
	s.saved(c, gin.H{"guild": guild, "prefix": s.settings.ResolvePrefix(guild)})
}

func (s *Server) muteChannel(c *gin.Context) {
	s.settings.MuteChannel(c.Param("id"))
	s.saved(c, gin.H{"muted_channels": s.settings.MutedChannels()})
}

func (s *Server) unmuteChannel(c *gin.Context) {
	s.settings.UnmuteChannel(c.Param("id"))
	s.saved(c, gin.H{"muted_channels": s.settings.MutedChannels()})
}

func (s *Server) muteUser(c *gin.Context) {
	s.settings.MuteUser(c.Param("id"))
	s.saved(c, gin.H{"muted_users": s.settings.MutedUsers()})
}

func (s *Server) unmuteUser(c *gin.Context) {
	s.settings.UnmuteUser(c.Param("id"))
	s.saved(c, gin.H{"muted_users": s.settings.MutedUsers()})
}

func (s *Server) grant(c *gin.Context) {
	name := c.Param("name")
	s.settings.GrantPermission(name, c.Param("user"))
	s.saved(c, gin.H{"permission": name, "holders": s.settings.PermissionHolders(name)})
}

func (s *Server) revoke(c *gin.Context) {
	name := c.Param("name")
	s.settings.RevokePermission(name, c.Param("user"))
	s.saved(c, gin.H{"permission": name, "holders": s.settings.PermissionHolders(name)})
}

func (s *Server) history(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "storage is not configured"})
		return
	}
	guild := c.Param("guild")
	if guild == "direct" {
		guild = ""
	}
	list, err := s.store.FetchCommandHistory(guild)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// saved persists the settings and answers with body. The change stays active
// in memory when saving fails.
func (s *Server) saved(c *gin.Context, body gin.H) {
	if s.store != nil {
		if err := s.store.SaveSettings(s.settings.Snapshot()); err != nil {
			s.log.Error().Err(err).Str("path", c.FullPath()).Msg("Failed to persist settings")
			c.JSON(http.StatusInternalServerError, gin.H{"err": "applied but not saved: " + err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, body)
}
