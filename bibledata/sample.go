package bibledata

import "github.com/tiwa-codes/scripture-sync/core"

// SampleVerses returns the built-in starter corpus: a small KJV and NIV
// selection for first-run seeding and demos. The slice is freshly
// allocated on every call; callers may mutate it. KJV precedes NIV, so
// after seeding the KJV variant is the default for every reference.
func SampleVerses() []*core.Verse {
	return []*core.Verse{
		{Translation: "KJV", Book: "John", Chapter: 3, VerseNum: 16,
			Text: "For God so loved the world, that he gave his only begotten Son, that whosoever believeth in him should not perish, but have everlasting life."},
		{Translation: "KJV", Book: "Psalm", Chapter: 23, VerseNum: 1,
			Text: "The LORD is my shepherd; I shall not want."},
		{Translation: "KJV", Book: "Psalm", Chapter: 23, VerseNum: 2,
			Text: "He maketh me to lie down in green pastures: he leadeth me beside the still waters."},
		{Translation: "KJV", Book: "Psalm", Chapter: 23, VerseNum: 3,
			Text: "He restoreth my soul: he leadeth me in the paths of righteousness for his name's sake."},
		{Translation: "KJV", Book: "Psalm", Chapter: 23, VerseNum: 4,
			Text: "Yea, though I walk through the valley of the shadow of death, I will fear no evil: for thou art with me; thy rod and thy staff they comfort me."},
		{Translation: "KJV", Book: "Genesis", Chapter: 1, VerseNum: 1,
			Text: "In the beginning God created the heaven and the earth."},
		{Translation: "NIV", Book: "John", Chapter: 3, VerseNum: 16,
			Text: "For God so loved the world that he gave his one and only Son, that whoever believes in him shall not perish but have eternal life."},
		{Translation: "NIV", Book: "Psalm", Chapter: 23, VerseNum: 1,
			Text: "The Lord is my shepherd, I lack nothing."},
		{Translation: "NIV", Book: "Psalm", Chapter: 23, VerseNum: 2,
			Text: "He makes me lie down in green pastures, he leads me beside quiet waters,"},
		{Translation: "NIV", Book: "Psalm", Chapter: 23, VerseNum: 3,
			Text: "he refreshes my soul. He guides me along the right paths for his name's sake."},
		{Translation: "NIV", Book: "Psalm", Chapter: 23, VerseNum: 4,
			Text: "Even though I walk through the darkest valley, I will fear no evil, for you are with me; your rod and your staff, they comfort me."},
		{Translation: "NIV", Book: "Genesis", Chapter: 1, VerseNum: 1,
			Text: "In the beginning God created the heavens and the earth."},
	}
}
