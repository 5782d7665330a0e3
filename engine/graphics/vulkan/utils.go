package vulkan

import vk "github.com/goki/vulkan"

var end = "\x00"
var endChar byte = '\x00'

// VulkanSafeString null-terminates a Go string for the C API.
func VulkanSafeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func VulkanSafeStrings(list []string) []string {
	for i := range list {
		list[i] = VulkanSafeString(list[i])
	}
	return list
}

// VulkanResultIsSuccess treats every non-error result as success.
func VulkanResultIsSuccess(result vk.Result) bool {
	return result >= vk.Success
}
