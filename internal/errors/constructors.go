package errors

// Convenience constructors for the navigation failures.

func UnknownCatalogEntry(catalog, id string) *NavError {
	return New(KindUnknownCatalogEntry, "unknown "+catalog).
		WithContext("catalog", catalog).
		WithContext("id", id)
}

func NoContentForSelection(version, section string) *NavError {
	return New(KindNoContentForSelection, "no topics for selection").
		WithContext("version", version).
		WithContext("section", section)
}

func InvalidSubTopic(topic, subTopic string) *NavError {
	return New(KindInvalidSubTopic, "sub-topic is not a child of topic").
		WithContext("topic", topic).
		WithContext("sub_topic", subTopic)
}

func ReentrantNavigation() *NavError {
	return New(KindReentrantNavigation, "navigation during broadcast")
}

func ContentNotFound(path string) *NavError {
	return New(KindContentNotFound, "document missing").
		WithContext("path", path)
}

func RenderFailed(cause error) *NavError {
	return Wrap(cause, KindRenderFailed, "render failed")
}

func MalformedURL(url string) *NavError {
	return New(KindMalformedURL, "expected {version}/{section}/{topic}[/{subTopic}]").
		WithContext("url", url)
}

func InvalidManifest(reason string) *NavError {
	return New(KindInvalidManifest, reason)
}
