package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-lifecycle-api/internal/errors"
)

// RequireIDParams parses each named URL parameter as a uint64 and stores it
// in the context under the same name. A malformed id aborts with 400.
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			id, err := strconv.ParseUint(c.Param(name), 10, 64)
			if err != nil || id == 0 {
				apierrors.BadRequest(c, "Invalid "+name)
				c.Abort()
				return
			}
			c.Set(paramKey(name), id)
		}
		c.Next()
	}
}

// GetIDParam returns an id parsed by RequireIDParams.
func GetIDParam(c *gin.Context, name string) uint64 {
	v, _ := c.Get(paramKey(name))
	id, _ := v.(uint64)
	return id
}

func paramKey(name string) string {
	return "param_" + name
}
