package model

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	lessonTitleRe = regexp.MustCompile(`Lesson Title: (.+?)\n`)
	courseTitleRe = regexp.MustCompile(`Course Title: (.+?)\n`)
)

// Simulate synthesizes a placeholder answer for prompt. It is used when the
// engine is not initialized so the app stays usable offline.
func Simulate(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "lesson content") || strings.Contains(lower, "lesson title:"):
		return simulatedLesson(prompt)
	case strings.Contains(lower, "course outline") || strings.Contains(lower, "course title:"):
		return simulatedCourse(prompt)
	default:
		return simulatedGeneric(prompt)
	}
}

func firstMatch(re *regexp.Regexp, s, def string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return def
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return def
}

func simulatedLesson(prompt string) string {
	title := firstMatch(lessonTitleRe, prompt, "Introduction")
	r := strings.NewReplacer("{title}", title)
	return r.Replace(lessonTemplate)
}

type simulatedLessonOutline struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Topics      []string `json:"topics"`
}

type simulatedCourseOutline struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Lessons     []simulatedLessonOutline `json:"lessons"`
}

func simulatedCourse(prompt string) string {
	title := firstMatch(courseTitleRe, prompt, "Sample Course")
	outline := simulatedCourseOutline{
		Title: title,
		Description: "A comprehensive course covering the fundamentals and advanced topics of " + title +
			". This course is designed to take you from beginner to proficient, with hands-on exercises and real-world applications.",
		Lessons: []simulatedLessonOutline{
			{"Introduction to " + title, "Get started with the basics and understand the core concepts", []string{"Overview", "Key Concepts", "Getting Started"}},
			{"Fundamental Principles", "Deep dive into the foundational principles that govern " + title, []string{"Core Principles", "Theoretical Framework", "Best Practices"}},
			{"Practical Applications", "Learn how to apply concepts in real-world scenarios", []string{"Use Cases", "Implementation Strategies", "Common Patterns"}},
			{"Intermediate Techniques", "Build on your knowledge with intermediate-level concepts", []string{"Advanced Concepts", "Optimization", "Problem Solving"}},
			{"Advanced Topics", "Master advanced techniques and best practices", []string{"Expert Strategies", "Performance Tuning", "Scalability"}},
			{"Project Work and Practice", "Apply your knowledge through hands-on projects", []string{"Project Planning", "Implementation", "Testing and Debugging"}},
		},
	}
	// Marshal so titles with quotes still produce valid JSON.
	data, _ := json.MarshalIndent(outline, "", "  ")
	return string(data)
}

func simulatedGeneric(prompt string) string {
	excerpt := prompt
	if r := []rune(prompt); len(r) > 100 {
		excerpt = string(r[:100])
	}
	return strings.Replace(genericTemplate, "{excerpt}", excerpt, 1)
}

const genericTemplate = `Based on your query, here's a comprehensive response:

{excerpt}...

This topic encompasses several important areas that are worth exploring in detail. Understanding these concepts will help you build a solid foundation for further learning.

Key Points:
• The fundamentals are essential for mastering this subject
• Practical application reinforces theoretical knowledge
• Regular practice leads to better understanding
• Real-world examples make concepts more relatable

For a more detailed and personalized response, start the on-device engine and load a model.

---

*Note: This is a simulated response for demonstration purposes.*`

const lessonTemplate = `# {title}

## Introduction

Welcome to this comprehensive lesson on {title}. This lesson will provide you with a solid foundation in understanding the key concepts and practical applications.

## Main Concepts

### Core Principles

The fundamental principles of {title} involve several important aspects:

1. **Understanding the Basics**: Before diving deep, it's essential to grasp the foundational concepts that underpin this topic.

2. **Practical Application**: Theory alone isn't enough - we'll explore how these concepts apply in real-world scenarios.

3. **Best Practices**: Learn the industry-standard approaches and techniques that professionals use.

### Key Topics Covered

- Fundamental concepts and definitions
- Step-by-step implementation guides
- Common pitfalls and how to avoid them
- Advanced techniques for optimization

## Examples and Practice

### Real-World Example

Let's consider a practical scenario: Imagine you're working on a project where you need to apply {title}. Here's how you would approach it:

1. Start by analyzing the requirements
2. Break down the problem into smaller components
3. Apply the principles we've discussed
4. Test and iterate on your solution

### Hands-On Exercise

Try this exercise to reinforce your learning:
- Review the concepts covered in this lesson
- Identify how they relate to your own projects
- Practice implementing the techniques discussed

## Key Takeaways

By the end of this lesson, you should be able to:
- Understand the core concepts of {title}
- Apply these principles in practical scenarios
- Recognize common challenges and solutions
- Build a foundation for more advanced topics

## Summary

{title} is a crucial topic that forms the foundation for many advanced concepts. By mastering the fundamentals covered in this lesson, you'll be well-equipped to tackle more complex challenges. Remember to practice regularly and apply what you've learned in real-world situations.

## Next Steps

Continue your learning journey by:
- Reviewing the key concepts
- Practicing with additional examples
- Exploring related topics
- Building projects that incorporate these principles

---

*Note: This is a simulated lesson for demonstration purposes. Start the on-device engine for generated content.*`
