package dispatch

var jokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"There are 10 kinds of people in the world: those who understand binary and those who don't.",
	"A SQL query walks into a bar, walks up to two tables and asks: can I join you?",
	"Why did the developer go broke? Because he used up all his cache.",
	"How many programmers does it take to change a light bulb? None, that's a hardware problem.",
	"I would tell you a UDP joke, but you might not get it.",
	"Why do Java developers wear glasses? Because they don't C sharp.",
	"Debugging is like being the detective in a crime movie where you are also the murderer.",
	"To understand recursion, you must first understand recursion.",
	"My code doesn't have bugs. It just develops random unexpected features.",
	"Why was the function sad after the party? It didn't get any callbacks.",
	"Knock knock. Race condition. Who's there?",
	"The best thing about a boolean is that even if you are wrong, you are only off by a bit.",
	"Why did the computer show up at work late? It had a hard drive.",
	"I told my computer I needed a break, and it said: no problem, I'll go to sleep.",
}
