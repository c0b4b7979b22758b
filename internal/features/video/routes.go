package video

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the student endpoints under /courses and the
// authoring endpoints under /studio.
func RegisterRoutes(api *gin.RouterGroup, h *Handler, authenticate, optionalAuth, requireAuthor gin.HandlerFunc) {
	videos := api.Group("/courses/:courseKey/videos/:videoId")
	{
		videos.GET("/state", authenticate, h.UserState)
		videos.POST("/state/:dispatch", authenticate, h.SaveState)
		videos.POST("/completion", authenticate, h.PublishCompletion)
		videos.GET("/metadata", authenticate, h.Metadata)
		// Translation checks the viewer itself so download and
		// available_translations stay reachable anonymously.
		videos.GET("/transcript/*dispatch", optionalAuth, h.Transcript)
	}

	studio := api.Group("/studio/courses/:courseKey/videos/:videoId/transcript", authenticate, requireAuthor)
	{
		studio.POST("/translation", h.UploadTranscript)
		studio.DELETE("/translation", h.DeleteTranscript)
		studio.GET("/translation", h.GetTranscript)
	}
}
